package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"invosight/internal/domain"
	"invosight/internal/port"
)

type failureRepo struct {
	db *sqlx.DB
}

// NewFailureRepo creates a new PostgreSQL-backed FailureRepository.
func NewFailureRepo(db *sqlx.DB) port.FailureRepository {
	return &failureRepo{db: db}
}

func (r *failureRepo) Record(ctx context.Context, f *domain.IngestionFailure) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	f.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ingestion_failures (id, stage, reason, attempts, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		f.ID, f.Stage, f.Reason, f.Attempts, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failureRepo.Record: %w", err)
	}
	return nil
}
