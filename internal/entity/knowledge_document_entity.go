package entity

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeDocument is one chunk of sales/support material available to retrieval.
type KnowledgeDocument struct {
	Id          uuid.UUID
	Title       string
	Content     string
	Source      string
	SourceType  string
	LastUpdated *time.Time
	Metadata    map[string]interface{}
	Embedding   []float32
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

type ScoredKnowledgeDocument struct {
	Document   *KnowledgeDocument
	Similarity float64
}
