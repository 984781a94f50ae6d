package validator

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"invosight/internal/domain"
	"invosight/internal/schema"
)

// Validator turns a raw extraction envelope into a canonical InvoiceRecord.
// Validation is deterministic: the same envelope always yields the same
// record, flags, and review decision.
type Validator struct {
	registry            *schema.Registry
	confidenceThreshold float64
	toleranceMinor      int64
}

// New creates a Validator. toleranceMinor bounds the allowed gap, in minor
// units, between the stated total and the sum of line totals plus tax.
func New(registry *schema.Registry, confidenceThreshold float64, toleranceMinor int64) *Validator {
	return &Validator{
		registry:            registry,
		confidenceThreshold: confidenceThreshold,
		toleranceMinor:      toleranceMinor,
	}
}

type rawItem struct {
	Description string          `json:"description"`
	Quantity    json.RawMessage `json:"quantity"`
	UnitPrice   json.RawMessage `json:"unit_price"`
	Amount      json.RawMessage `json:"amount"`
}

type rawEnvelope struct {
	Vendor struct {
		Name    *string `json:"name"`
		Address *string `json:"address"`
		Phone   *string `json:"phone"`
		Email   *string `json:"email"`
	} `json:"vendor"`
	OrderDetails struct {
		InvoiceNumber *string `json:"invoice_number"`
		InvoiceDate   *string `json:"invoice_date"`
		DueDate       *string `json:"due_date"`
		PONumber      *string `json:"po_number"`
	} `json:"order_details"`
	Items          []rawItem `json:"items"`
	PaymentDetails struct {
		Subtotal json.RawMessage `json:"subtotal"`
		Tax      json.RawMessage `json:"tax"`
		Total    json.RawMessage `json:"total"`
		Currency *string         `json:"currency"`
	} `json:"payment_details"`
}

// confidencePaths maps canonical record fields to their position in the
// extraction confidence map.
var confidencePaths = map[string]string{
	"vendor_name":    "vendor.name",
	"vendor_address": "vendor.address",
	"vendor_phone":   "vendor.phone",
	"vendor_email":   "vendor.email",
	"invoice_number": "order_details.invoice_number",
	"invoice_date":   "order_details.invoice_date",
	"due_date":       "order_details.due_date",
	"po_number":      "order_details.po_number",
	"subtotal_minor": "payment_details.subtotal",
	"tax_minor":      "payment_details.tax",
	"total_minor":    "payment_details.total",
	"currency":       "payment_details.currency",
}

// neutralConfidence is assumed for any field the model scored no confidence
// for.
const neutralConfidence = 0.5

// Validate parses a raw extraction envelope into an InvoiceRecord. Only a
// structurally unusable envelope fails; field-level problems become flags
// on the record instead. The returned record has no ID or timestamps; the
// ingestion flow assigns those at persist time.
func (v *Validator) Validate(raw json.RawMessage) (*domain.InvoiceRecord, error) {
	var outer struct {
		Data             json.RawMessage `json:"data"`
		ConfidenceScores json.RawMessage `json:"confidence_scores"`
	}
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedExtraction, err)
	}
	if len(outer.Data) == 0 || string(outer.Data) == "null" {
		return nil, fmt.Errorf("%w: missing data section", domain.ErrMalformedExtraction)
	}

	var env rawEnvelope
	if err := json.Unmarshal(outer.Data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedExtraction, err)
	}

	confidences := flattenConfidences(outer.ConfidenceScores)

	rec := &domain.InvoiceRecord{RawExtraction: append(json.RawMessage(nil), raw...)}
	var flags []domain.FieldFlag
	flag := func(field, reason string) {
		flags = append(flags, domain.FieldFlag{Field: field, Reason: reason})
	}

	rec.VendorName = cleanString(env.Vendor.Name)
	rec.VendorAddress = cleanString(env.Vendor.Address)
	rec.VendorPhone = cleanString(env.Vendor.Phone)
	rec.VendorEmail = cleanString(env.Vendor.Email)
	rec.InvoiceNumber = cleanString(env.OrderDetails.InvoiceNumber)
	rec.PONumber = cleanString(env.OrderDetails.PONumber)

	rec.InvoiceDate = v.parseDate("invoice_date", env.OrderDetails.InvoiceDate, flag)
	rec.DueDate = v.parseDate("due_date", env.OrderDetails.DueDate, flag)

	rec.SubtotalMinor = parseMoneyField("subtotal_minor", env.PaymentDetails.Subtotal, flag)
	rec.TaxMinor = parseMoneyField("tax_minor", env.PaymentDetails.Tax, flag)
	rec.TotalMinor = parseMoneyField("total_minor", env.PaymentDetails.Total, flag)

	if c := cleanString(env.PaymentDetails.Currency); c != nil {
		rec.Currency = strings.ToUpper(*c)
	}

	var lineTotalSum int64
	lineTotalsPresent := false
	for i, item := range env.Items {
		li := domain.LineItem{Description: strings.TrimSpace(item.Description)}

		qty, err := parseQuantity(item.Quantity)
		if err != nil {
			flag(fmt.Sprintf("items[%d].quantity", i), err.Error())
		}
		li.Quantity = qty

		li.UnitPriceMinor = parseMoneyField(fmt.Sprintf("items[%d].unit_price", i), item.UnitPrice, flag)
		li.LineTotalMinor = parseMoneyField(fmt.Sprintf("items[%d].amount", i), item.Amount, flag)
		if li.LineTotalMinor != nil {
			lineTotalSum += *li.LineTotalMinor
			lineTotalsPresent = true
		}

		rec.LineItems = append(rec.LineItems, li)
	}

	needsReview := false

	for _, field := range v.registry.RequiredFields() {
		if !fieldPresent(rec, field) {
			flag(field, "required field missing")
			needsReview = true
			continue
		}
		conf := neutralConfidence
		if path, ok := confidencePaths[field]; ok {
			if c, ok := confidences[path]; ok {
				conf = c
			}
		}
		if conf < v.confidenceThreshold {
			flag(field, fmt.Sprintf("confidence %.2f below threshold %.2f", conf, v.confidenceThreshold))
			needsReview = true
		}
	}

	// Reconcile the stated total against line totals plus tax. Only runs
	// when both sides are actually present.
	if rec.TotalMinor != nil && lineTotalsPresent {
		var tax int64
		if rec.TaxMinor != nil {
			tax = *rec.TaxMinor
		}
		expected := lineTotalSum + tax
		diff := *rec.TotalMinor - expected
		if diff < 0 {
			diff = -diff
		}
		if diff > v.toleranceMinor {
			flag("total_minor", fmt.Sprintf("total %d does not reconcile with line totals plus tax %d", *rec.TotalMinor, expected))
			needsReview = true
		}
	}

	rec.NeedsReview = needsReview

	if flags == nil {
		flags = []domain.FieldFlag{}
	}
	flagBytes, err := json.Marshal(flags)
	if err != nil {
		return nil, fmt.Errorf("marshaling field flags: %w", err)
	}
	rec.FieldFlags = flagBytes

	confBytes, err := json.Marshal(confidences)
	if err != nil {
		return nil, fmt.Errorf("marshaling confidences: %w", err)
	}
	rec.ConfidenceScores = confBytes

	return rec, nil
}

func (v *Validator) parseDate(field string, raw *string, flag func(field, reason string)) *time.Time {
	s := cleanString(raw)
	if s == nil {
		return nil
	}
	for _, layout := range v.registry.DateFormats() {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t
		}
	}
	flag(field, fmt.Sprintf("unparseable date %q", *s))
	return nil
}

func parseMoneyField(field string, raw json.RawMessage, flag func(field, reason string)) *int64 {
	minor, err := parseMoneyMinor(raw)
	if err != nil {
		flag(field, err.Error())
		return nil
	}
	return minor
}

func cleanString(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func fieldPresent(rec *domain.InvoiceRecord, field string) bool {
	switch field {
	case "vendor_name":
		return rec.VendorName != nil
	case "vendor_address":
		return rec.VendorAddress != nil
	case "vendor_phone":
		return rec.VendorPhone != nil
	case "vendor_email":
		return rec.VendorEmail != nil
	case "invoice_number":
		return rec.InvoiceNumber != nil
	case "invoice_date":
		return rec.InvoiceDate != nil
	case "due_date":
		return rec.DueDate != nil
	case "po_number":
		return rec.PONumber != nil
	case "currency":
		return rec.Currency != ""
	case "subtotal_minor":
		return rec.SubtotalMinor != nil
	case "tax_minor":
		return rec.TaxMinor != nil
	case "total_minor":
		return rec.TotalMinor != nil
	default:
		return false
	}
}

// flattenConfidences walks the nested confidence object into flat
// dot-and-index paths ("vendor.name", "items[0].amount"). Non-numeric
// leaves are dropped.
func flattenConfidences(raw json.RawMessage) map[string]float64 {
	out := map[string]float64{}
	if len(raw) == 0 {
		return out
	}
	var root interface{}
	if err := json.Unmarshal(raw, &root); err != nil {
		return out
	}
	flattenInto(out, "", root)
	return out
}

func flattenInto(out map[string]float64, prefix string, node interface{}) {
	switch val := node.(type) {
	case map[string]interface{}:
		for k, child := range val {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			flattenInto(out, p, child)
		}
	case []interface{}:
		for i, child := range val {
			flattenInto(out, fmt.Sprintf("%s[%d]", prefix, i), child)
		}
	case float64:
		if prefix != "" {
			out[prefix] = val
		}
	}
}
