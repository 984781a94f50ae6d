package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"invosight/internal/domain"
	"invosight/internal/port"
)

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) Persist(ctx context.Context, rec *domain.InvoiceRecord) error {
	rec.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Persist begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO invoices (
		id, vendor_name, vendor_address, vendor_phone, vendor_email,
		invoice_number, invoice_date, due_date, po_number, currency,
		subtotal_minor, tax_minor, total_minor, needs_review,
		confidence_scores, field_flags, raw_extraction, source_image_key, created_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10,
		$11, $12, $13, $14,
		$15, $16, $17, $18, $19
	)`

	_, err = tx.ExecContext(ctx, query,
		rec.ID, rec.VendorName, rec.VendorAddress, rec.VendorPhone, rec.VendorEmail,
		rec.InvoiceNumber, rec.InvoiceDate, rec.DueDate, rec.PONumber, rec.Currency,
		rec.SubtotalMinor, rec.TaxMinor, rec.TotalMinor, rec.NeedsReview,
		rec.ConfidenceScores, rec.FieldFlags, rec.RawExtraction, rec.SourceImageKey, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Persist invoice: %w", err)
	}

	for i, item := range rec.LineItems {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO invoice_items (
				id, invoice_id, position, description, quantity, unit_price_minor, line_total_minor
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), rec.ID, i, item.Description, item.Quantity, item.UnitPriceMinor, item.LineTotalMinor)
		if err != nil {
			return fmt.Errorf("invoiceRepo.Persist item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("invoiceRepo.Persist commit: %w", err)
	}
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, error) {
	var rec domain.InvoiceRecord
	err := r.db.GetContext(ctx, &rec,
		"SELECT * FROM invoices WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}

	err = r.db.SelectContext(ctx, &rec.LineItems,
		`SELECT description, quantity, unit_price_minor, line_total_minor
		 FROM invoice_items WHERE invoice_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.GetByID items: %w", err)
	}
	return &rec, nil
}

func (r *invoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM invoices WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("invoiceRepo.Delete: %w", err)
	}
	if n == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *invoiceRepo) List(ctx context.Context, offset, limit int) ([]domain.InvoiceRecord, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM invoices")
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List count: %w", err)
	}

	var recs []domain.InvoiceRecord
	err = r.db.SelectContext(ctx, &recs,
		`SELECT * FROM invoices ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List: %w", err)
	}
	return recs, total, nil
}
