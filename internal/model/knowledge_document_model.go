package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type KnowledgeDocument struct {
	Id          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string          `gorm:"type:varchar(255)"`
	Content     string          `gorm:"type:text;not null"`
	Source      string          `gorm:"type:varchar(512)"`
	SourceType  string          `gorm:"type:varchar(64);index"`
	LastUpdated *time.Time      `gorm:"index"`
	Metadata    datatypes.JSON  `gorm:"type:jsonb"`
	Embedding   pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text / text-embedding-3-small@768
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
}

func (KnowledgeDocument) TableName() string {
	return "knowledge_documents"
}
