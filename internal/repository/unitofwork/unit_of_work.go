package unitofwork

import (
	"context"

	"sales-assistant-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	KnowledgeDocumentRepository() contract.KnowledgeDocumentRepository
	LeadRepository() contract.LeadRepository
}
