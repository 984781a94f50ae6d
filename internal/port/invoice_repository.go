package port

import (
	"context"

	"github.com/google/uuid"

	"invosight/internal/domain"
)

// InvoiceRepository persists validated invoice records and their line items.
type InvoiceRepository interface {
	// Persist writes the record and its line items in a single transaction.
	Persist(ctx context.Context, rec *domain.InvoiceRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, error)
	List(ctx context.Context, offset, limit int) ([]domain.InvoiceRecord, int, error)
	// Delete removes the record and, via cascade, its line items.
	Delete(ctx context.Context, id uuid.UUID) error
}

// FailureRepository records ingestions that never reached the persisted state.
type FailureRepository interface {
	Record(ctx context.Context, f *domain.IngestionFailure) error
}
