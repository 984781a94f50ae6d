package validator

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invosight/internal/domain"
	"invosight/internal/schema"
)

func newTestValidator(t *testing.T, required []string) *Validator {
	t.Helper()
	reg, err := schema.NewRegistry(required, nil)
	require.NoError(t, err)
	return New(reg, 0.6, 100)
}

const fullEnvelope = `{
  "data": {
    "vendor": {"name": "Acme Supplies", "address": "1 Main St", "phone": "555-0100", "email": "billing@acme.test"},
    "order_details": {"invoice_number": "INV-1001", "invoice_date": "2026-03-15", "due_date": "04/14/2026", "po_number": "PO-88"},
    "items": [
      {"description": "Widgets", "quantity": 10, "unit_price": "$12.50", "amount": "$125.00"},
      {"description": "Shipping", "quantity": 1, "unit_price": 9.99, "amount": 9.99}
    ],
    "payment_details": {"subtotal": "134.99", "tax": "11.01", "total": "$146.00", "currency": "usd"}
  },
  "confidence_scores": {
    "vendor": {"name": 0.98, "address": 0.9, "phone": 0.85, "email": 0.92},
    "order_details": {"invoice_number": 0.99, "invoice_date": 0.97, "due_date": 0.8, "po_number": 0.7},
    "items": [
      {"description": 0.95, "quantity": 0.95, "unit_price": 0.9, "amount": 0.9},
      {"description": 0.9, "quantity": 0.9, "unit_price": 0.85, "amount": 0.85}
    ],
    "payment_details": {"subtotal": 0.9, "tax": 0.88, "total": 0.96, "currency": 0.99}
  }
}`

func TestValidate_FullEnvelope(t *testing.T) {
	v := newTestValidator(t, nil)

	rec, err := v.Validate(json.RawMessage(fullEnvelope))
	require.NoError(t, err)

	require.NotNil(t, rec.VendorName)
	assert.Equal(t, "Acme Supplies", *rec.VendorName)
	require.NotNil(t, rec.InvoiceNumber)
	assert.Equal(t, "INV-1001", *rec.InvoiceNumber)

	require.NotNil(t, rec.InvoiceDate)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *rec.InvoiceDate)
	require.NotNil(t, rec.DueDate)
	assert.Equal(t, time.Date(2026, 4, 14, 0, 0, 0, 0, time.UTC), *rec.DueDate)

	require.NotNil(t, rec.TotalMinor)
	assert.Equal(t, int64(14600), *rec.TotalMinor)
	require.NotNil(t, rec.SubtotalMinor)
	assert.Equal(t, int64(13499), *rec.SubtotalMinor)
	require.NotNil(t, rec.TaxMinor)
	assert.Equal(t, int64(1101), *rec.TaxMinor)
	assert.Equal(t, "USD", rec.Currency)

	require.Len(t, rec.LineItems, 2)
	assert.Equal(t, "Widgets", rec.LineItems[0].Description)
	assert.Equal(t, 10.0, rec.LineItems[0].Quantity)
	require.NotNil(t, rec.LineItems[0].UnitPriceMinor)
	assert.Equal(t, int64(1250), *rec.LineItems[0].UnitPriceMinor)
	require.NotNil(t, rec.LineItems[1].LineTotalMinor)
	assert.Equal(t, int64(999), *rec.LineItems[1].LineTotalMinor)

	// 12500 + 999 + 1101 = 14600 exactly, so no reconciliation flag.
	assert.False(t, rec.NeedsReview)
	assert.JSONEq(t, "[]", string(rec.FieldFlags))
}

func TestValidate_MoneyParsing(t *testing.T) {
	v := newTestValidator(t, []string{"total_minor"})

	raw := `{
	  "data": {
	    "payment_details": {"subtotal": "1,234.56", "tax": null, "total": "€1,234.56", "currency": "EUR"},
	    "items": []
	  },
	  "confidence_scores": {"payment_details": {"total": 0.9}}
	}`
	rec, err := v.Validate(json.RawMessage(raw))
	require.NoError(t, err)

	require.NotNil(t, rec.SubtotalMinor)
	assert.Equal(t, int64(123456), *rec.SubtotalMinor)
	assert.Nil(t, rec.TaxMinor)
	require.NotNil(t, rec.TotalMinor)
	assert.Equal(t, int64(123456), *rec.TotalMinor)
	assert.False(t, rec.NeedsReview)
}

func TestValidate_MissingRequiredFieldFlagsReview(t *testing.T) {
	v := newTestValidator(t, nil)

	raw := `{
	  "data": {
	    "vendor": {"name": null},
	    "order_details": {"invoice_number": "INV-2", "invoice_date": "2026-01-05"},
	    "items": [],
	    "payment_details": {"total": 50, "currency": "USD"}
	  },
	  "confidence_scores": {
	    "order_details": {"invoice_number": 0.9, "invoice_date": 0.9},
	    "payment_details": {"total": 0.9}
	  }
	}`
	rec, err := v.Validate(json.RawMessage(raw))
	require.NoError(t, err)

	assert.True(t, rec.NeedsReview)
	var flags []domain.FieldFlag
	require.NoError(t, json.Unmarshal(rec.FieldFlags, &flags))
	require.Len(t, flags, 1)
	assert.Equal(t, "vendor_name", flags[0].Field)
	assert.Equal(t, "required field missing", flags[0].Reason)
}

func TestValidate_LowConfidenceFlagsReview(t *testing.T) {
	v := newTestValidator(t, []string{"total_minor"})

	raw := `{
	  "data": {"items": [], "payment_details": {"total": 100, "currency": "USD"}},
	  "confidence_scores": {"payment_details": {"total": 0.3}}
	}`
	rec, err := v.Validate(json.RawMessage(raw))
	require.NoError(t, err)

	assert.True(t, rec.NeedsReview)
	var flags []domain.FieldFlag
	require.NoError(t, json.Unmarshal(rec.FieldFlags, &flags))
	require.Len(t, flags, 1)
	assert.Contains(t, flags[0].Reason, "confidence 0.30 below threshold")
}

func TestValidate_MissingConfidenceIsNeutral(t *testing.T) {
	// Neutral 0.5 sits below the 0.6 threshold, so an unscored required
	// field still goes to review.
	v := newTestValidator(t, []string{"total_minor"})

	raw := `{"data": {"items": [], "payment_details": {"total": 100}}}`
	rec, err := v.Validate(json.RawMessage(raw))
	require.NoError(t, err)
	assert.True(t, rec.NeedsReview)
}

func TestValidate_ReconciliationMismatch(t *testing.T) {
	v := newTestValidator(t, []string{"total_minor"})

	raw := `{
	  "data": {
	    "items": [{"description": "A", "quantity": 1, "unit_price": 100, "amount": 100}],
	    "payment_details": {"tax": 5, "total": 200, "currency": "USD"}
	  },
	  "confidence_scores": {"payment_details": {"total": 0.95}}
	}`
	rec, err := v.Validate(json.RawMessage(raw))
	require.NoError(t, err)

	// total 20000 vs line totals 10000 + tax 500 is outside the 100 minor
	// unit tolerance.
	assert.True(t, rec.NeedsReview)
	var flags []domain.FieldFlag
	require.NoError(t, json.Unmarshal(rec.FieldFlags, &flags))
	require.Len(t, flags, 1)
	assert.Equal(t, "total_minor", flags[0].Field)
	assert.Contains(t, flags[0].Reason, "does not reconcile")
}

func TestValidate_ReconciliationWithinTolerance(t *testing.T) {
	v := newTestValidator(t, []string{"total_minor"})

	raw := `{
	  "data": {
	    "items": [{"description": "A", "quantity": 1, "unit_price": "99.50", "amount": "99.50"}],
	    "payment_details": {"total": "100.00", "currency": "USD"}
	  },
	  "confidence_scores": {"payment_details": {"total": 0.95}}
	}`
	rec, err := v.Validate(json.RawMessage(raw))
	require.NoError(t, err)
	assert.False(t, rec.NeedsReview)
}

func TestValidate_UnparseableDateFlagsWithoutReview(t *testing.T) {
	v := newTestValidator(t, []string{"total_minor"})

	raw := `{
	  "data": {
	    "order_details": {"due_date": "next Tuesday"},
	    "items": [],
	    "payment_details": {"total": 100, "currency": "USD"}
	  },
	  "confidence_scores": {"payment_details": {"total": 0.9}}
	}`
	rec, err := v.Validate(json.RawMessage(raw))
	require.NoError(t, err)

	assert.Nil(t, rec.DueDate)
	assert.False(t, rec.NeedsReview)
	var flags []domain.FieldFlag
	require.NoError(t, json.Unmarshal(rec.FieldFlags, &flags))
	require.Len(t, flags, 1)
	assert.Equal(t, "due_date", flags[0].Field)
}

func TestValidate_DateFormatFallthrough(t *testing.T) {
	v := newTestValidator(t, []string{"total_minor"})

	raw := `{
	  "data": {
	    "order_details": {"invoice_date": "January 5, 2026"},
	    "items": [],
	    "payment_details": {"total": 100, "currency": "USD"}
	  },
	  "confidence_scores": {"payment_details": {"total": 0.9}}
	}`
	rec, err := v.Validate(json.RawMessage(raw))
	require.NoError(t, err)
	require.NotNil(t, rec.InvoiceDate)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), *rec.InvoiceDate)
}

func TestValidate_MalformedEnvelope(t *testing.T) {
	v := newTestValidator(t, nil)

	for name, raw := range map[string]string{
		"not json":     `this is not json`,
		"missing data": `{"confidence_scores": {}}`,
		"null data":    `{"data": null}`,
		"wrong shape":  `{"data": {"items": "not an array"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Validate(json.RawMessage(raw))
			require.ErrorIs(t, err, domain.ErrMalformedExtraction)
		})
	}
}

func TestValidate_Deterministic(t *testing.T) {
	v := newTestValidator(t, nil)

	first, err := v.Validate(json.RawMessage(fullEnvelope))
	require.NoError(t, err)
	second, err := v.Validate(json.RawMessage(fullEnvelope))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, string(first.ConfidenceScores), string(second.ConfidenceScores))
	assert.Equal(t, string(first.FieldFlags), string(second.FieldFlags))
}

func TestValidate_RetainsRawExtraction(t *testing.T) {
	v := newTestValidator(t, nil)
	rec, err := v.Validate(json.RawMessage(fullEnvelope))
	require.NoError(t, err)
	assert.JSONEq(t, fullEnvelope, string(rec.RawExtraction))
}
