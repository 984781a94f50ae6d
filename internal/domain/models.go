package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// InvoiceRecord is the canonical, validated representation of one invoice,
// independent of the raw model output that produced it.
type InvoiceRecord struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	VendorName     *string    `db:"vendor_name" json:"vendor_name"`
	VendorAddress  *string    `db:"vendor_address" json:"vendor_address"`
	VendorPhone    *string    `db:"vendor_phone" json:"vendor_phone"`
	VendorEmail    *string    `db:"vendor_email" json:"vendor_email"`
	InvoiceNumber  *string    `db:"invoice_number" json:"invoice_number"`
	InvoiceDate    *time.Time `db:"invoice_date" json:"invoice_date"`
	DueDate        *time.Time `db:"due_date" json:"due_date"`
	PONumber       *string    `db:"po_number" json:"po_number"`
	Currency       string     `db:"currency" json:"currency"`
	SubtotalMinor  *int64     `db:"subtotal_minor" json:"subtotal_minor"`
	TaxMinor       *int64     `db:"tax_minor" json:"tax_minor"`
	TotalMinor     *int64     `db:"total_minor" json:"total_minor"`
	NeedsReview    bool       `db:"needs_review" json:"needs_review"`
	SourceImageKey string     `db:"source_image_key" json:"source_image_key"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`

	// Monetary columns hold minor units (cents), never floats.
	LineItems []LineItem `db:"-" json:"line_items"`

	// ConfidenceScores is a flat field-path → [0,1] map, stored as JSONB.
	ConfidenceScores json.RawMessage `db:"confidence_scores" json:"confidence_scores"`
	// FieldFlags holds per-field diagnostics (parse failures, missing
	// required fields, reconciliation mismatches), stored as JSONB.
	FieldFlags json.RawMessage `db:"field_flags" json:"field_flags"`
	// RawExtraction retains the unmodified model output for audit. It is
	// never exposed to the query surface.
	RawExtraction json.RawMessage `db:"raw_extraction" json:"raw_extraction"`
}

// LineItem is one extracted invoice line, ordered by extraction position.
type LineItem struct {
	Description    string  `db:"description" json:"description"`
	Quantity       float64 `db:"quantity" json:"quantity"`
	UnitPriceMinor *int64  `db:"unit_price_minor" json:"unit_price_minor"`
	LineTotalMinor *int64  `db:"line_total_minor" json:"line_total_minor"`
}

// FieldFlag records why a single extracted field needs human attention.
type FieldFlag struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// IngestionOutcome is returned to the caller of the ingestion flow.
type IngestionOutcome struct {
	RecordID      *uuid.UUID      `json:"record_id,omitempty"`
	Status        IngestionStatus `json:"status"`
	NeedsReview   bool            `json:"needs_review"`
	Record        *InvoiceRecord  `json:"record,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
}

// IngestionFailure is the durable trace of an ingestion that never reached
// the persisted state. Failed documents are recorded, never dropped silently.
type IngestionFailure struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Stage     string    `db:"stage" json:"stage"`
	Reason    string    `db:"reason" json:"reason"`
	Attempts  int       `db:"attempts" json:"attempts"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CandidateQuery is a translator-produced statement that has not yet passed
// the guard. It is untrusted data, never executable on its own.
type CandidateQuery struct {
	SQL        string  `json:"sql"`
	Confidence float64 `json:"confidence"`
}

// GuardedQuery is a candidate that passed every guard rule. WasModified is
// true when the guard injected a row bound.
type GuardedQuery struct {
	SQL         string `json:"sql"`
	WasModified bool   `json:"was_modified"`
}

// Column describes one column of a query result.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResult is the transient, per-question response of the query flow.
// When the guard vetoed the statement, Rows is empty, GeneratedSQL records
// what was attempted, and RejectionReason is populated.
type QueryResult struct {
	GeneratedSQL          string          `json:"generated_sql"`
	Columns               []Column        `json:"columns"`
	Rows                  [][]interface{} `json:"rows"`
	TranslationConfidence float64         `json:"translation_confidence"`
	RejectionReason       string          `json:"rejection_reason,omitempty"`
	WasModified           bool            `json:"was_modified"`
}
