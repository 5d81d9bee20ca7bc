package mapper

import (
	"encoding/json"

	"sales-assistant-be/internal/entity"
	"sales-assistant-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type KnowledgeDocumentMapper struct{}

func NewKnowledgeDocumentMapper() *KnowledgeDocumentMapper {
	return &KnowledgeDocumentMapper{}
}

func (m *KnowledgeDocumentMapper) ToEntity(d *model.KnowledgeDocument) *entity.KnowledgeDocument {
	if d == nil {
		return nil
	}

	meta := map[string]interface{}{}
	if len(d.Metadata) > 0 {
		_ = json.Unmarshal(d.Metadata, &meta)
	}

	return &entity.KnowledgeDocument{
		Id:          d.Id,
		Title:       d.Title,
		Content:     d.Content,
		Source:      d.Source,
		SourceType:  d.SourceType,
		LastUpdated: d.LastUpdated,
		Metadata:    meta,
		Embedding:   d.Embedding.Slice(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   timePtr(d.UpdatedAt),
	}
}

func (m *KnowledgeDocumentMapper) ToModel(e *entity.KnowledgeDocument) *model.KnowledgeDocument {
	if e == nil {
		return nil
	}

	var meta datatypes.JSON
	if len(e.Metadata) > 0 {
		if raw, err := json.Marshal(e.Metadata); err == nil {
			meta = datatypes.JSON(raw)
		}
	}

	return &model.KnowledgeDocument{
		Id:          e.Id,
		Title:       e.Title,
		Content:     e.Content,
		Source:      e.Source,
		SourceType:  e.SourceType,
		LastUpdated: e.LastUpdated,
		Metadata:    meta,
		Embedding:   pgvector.NewVector(e.Embedding),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   timeValue(e.UpdatedAt),
	}
}
