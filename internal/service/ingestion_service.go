package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"invosight/internal/domain"
	"invosight/internal/port"
	"invosight/internal/validator"
)

// IngestionService drives an invoice image from upload to persisted record:
// extract, validate, retain the source image, persist. Failures at any
// stage are recorded durably before being returned.
type IngestionService struct {
	extractor port.VisionExtractor
	validator *validator.Validator
	invoices  port.InvoiceRepository
	failures  port.FailureRepository
	storage   port.ObjectStorage
	retry     RetryPolicy
	maxBytes  int64
}

// NewIngestionService wires the ingestion flow.
func NewIngestionService(
	extractor port.VisionExtractor,
	v *validator.Validator,
	invoices port.InvoiceRepository,
	failures port.FailureRepository,
	storage port.ObjectStorage,
	retry RetryPolicy,
	maxImageSizeMB int64,
) *IngestionService {
	return &IngestionService{
		extractor: extractor,
		validator: v,
		invoices:  invoices,
		failures:  failures,
		storage:   storage,
		retry:     retry,
		maxBytes:  maxImageSizeMB * 1024 * 1024,
	}
}

// Ingest processes one invoice image end to end.
func (s *IngestionService) Ingest(ctx context.Context, image []byte, contentType string) (*domain.IngestionOutcome, error) {
	ext, ok := domain.AllowedImageTypes[contentType]
	if !ok {
		return nil, domain.ErrUnsupportedImageType
	}
	if s.maxBytes > 0 && int64(len(image)) > s.maxBytes {
		return nil, domain.ErrImageTooLarge
	}

	var raw json.RawMessage
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var eerr error
		raw, eerr = s.extractor.Extract(ctx, image, contentType)
		return eerr
	})
	if err != nil {
		s.recordFailure(ctx, "extract", err)
		return nil, fmt.Errorf("extracting invoice: %w", err)
	}

	rec, err := s.validator.Validate(raw)
	if err != nil {
		s.recordFailure(ctx, "validate", err)
		return nil, err
	}

	rec.ID = uuid.New()

	// Image retention is best effort; a dead object store must not block
	// the record itself.
	key := fmt.Sprintf("invoices/%s.%s", rec.ID, ext)
	if uerr := s.storage.Upload(ctx, key, image, contentType); uerr != nil {
		log.Printf("service.IngestionService.Ingest: image retention failed for %s: %v", rec.ID, uerr)
	} else {
		rec.SourceImageKey = key
	}

	if err := s.invoices.Persist(ctx, rec); err != nil {
		s.recordFailure(ctx, "persist", err)
		return nil, fmt.Errorf("persisting invoice: %w", err)
	}

	log.Printf("service.IngestionService.Ingest: persisted %s (needs_review=%t, items=%d)",
		rec.ID, rec.NeedsReview, len(rec.LineItems))

	id := rec.ID
	return &domain.IngestionOutcome{
		RecordID:    &id,
		Status:      domain.IngestionStatusPersisted,
		NeedsReview: rec.NeedsReview,
		Record:      rec,
	}, nil
}

func (s *IngestionService) recordFailure(ctx context.Context, stage string, cause error) {
	f := &domain.IngestionFailure{
		Stage:    stage,
		Reason:   cause.Error(),
		Attempts: s.retry.MaxAttempts,
	}
	if err := s.failures.Record(ctx, f); err != nil {
		log.Printf("service.IngestionService: recording %s failure: %v", stage, err)
	}
}

// GetInvoice returns one persisted record.
func (s *IngestionService) GetInvoice(ctx context.Context, id uuid.UUID) (*domain.InvoiceRecord, error) {
	return s.invoices.GetByID(ctx, id)
}

// ListInvoices returns a page of persisted records plus the total count.
func (s *IngestionService) ListInvoices(ctx context.Context, offset, limit int) ([]domain.InvoiceRecord, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.invoices.List(ctx, offset, limit)
}

// GetInvoiceImage returns the retained source image for a record along with
// its content type. Records ingested without retention have no image.
func (s *IngestionService) GetInvoiceImage(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	rec, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if rec.SourceImageKey == "" {
		return nil, "", domain.ErrImageNotRetained
	}
	data, err := s.storage.Download(ctx, rec.SourceImageKey)
	if err != nil {
		return nil, "", fmt.Errorf("downloading image %s: %w", rec.SourceImageKey, err)
	}
	return data, contentTypeForKey(rec.SourceImageKey), nil
}

// DeleteInvoice removes a record, its line items, and the retained image.
// Image cleanup is best effort, mirroring retention on ingest.
func (s *IngestionService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	rec, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.invoices.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting invoice: %w", err)
	}
	if rec.SourceImageKey != "" {
		if derr := s.storage.Delete(ctx, rec.SourceImageKey); derr != nil {
			log.Printf("service.IngestionService.DeleteInvoice: image cleanup failed for %s: %v", id, derr)
		}
	}
	return nil
}

func contentTypeForKey(key string) string {
	idx := strings.LastIndex(key, ".")
	if idx >= 0 {
		if ct, ok := domain.AllowedImageExtensions[key[idx+1:]]; ok {
			return ct
		}
	}
	return "application/octet-stream"
}
