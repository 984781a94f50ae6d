package port

import (
	"context"

	"invosight/internal/domain"
	"invosight/internal/schema"
)

// RecordStore is the query-side view of the invoice store.
type RecordStore interface {
	// DescribeSchema returns a live snapshot of the queryable surface,
	// intersected with the registry allow-list.
	DescribeSchema(ctx context.Context) (*schema.Description, error)
	// RunReadOnly executes a guarded statement inside a read-only
	// transaction with a deadline, returning at most maxRows rows.
	RunReadOnly(ctx context.Context, sql string, maxRows int) ([]domain.Column, [][]interface{}, error)
}
