package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Column is one queryable column of a registered table.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

// Table is one registered queryable table.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Description is a point-in-time snapshot of the queryable surface. The
// translator prompt and the guard both consume the same snapshot so a
// statement is validated against exactly the schema it was generated for.
type Description struct {
	Tables []Table

	tableIdx map[string]map[string]bool
}

// NewDescription builds a Description with its lookup index populated.
func NewDescription(tables []Table) *Description {
	idx := make(map[string]map[string]bool, len(tables))
	for _, t := range tables {
		cols := make(map[string]bool, len(t.Columns))
		for _, c := range t.Columns {
			cols[strings.ToLower(c.Name)] = true
		}
		idx[strings.ToLower(t.Name)] = cols
	}
	return &Description{Tables: tables, tableIdx: idx}
}

// HasTable reports whether the named table is queryable.
func (d *Description) HasTable(name string) bool {
	_, ok := d.tableIdx[strings.ToLower(name)]
	return ok
}

// HasColumn reports whether the named column exists on the named table.
func (d *Description) HasColumn(table, column string) bool {
	cols, ok := d.tableIdx[strings.ToLower(table)]
	if !ok {
		return false
	}
	return cols[strings.ToLower(column)]
}

// HasColumnAnywhere reports whether any queryable table has the column.
// Used to ground unqualified column references.
func (d *Description) HasColumnAnywhere(column string) bool {
	lc := strings.ToLower(column)
	for _, cols := range d.tableIdx {
		if cols[lc] {
			return true
		}
	}
	return false
}

// PromptText renders the snapshot as the schema section of a translation
// prompt. Output is deterministic for a given snapshot.
func (d *Description) PromptText() string {
	var b strings.Builder
	for _, t := range d.Tables {
		b.WriteString("TABLE ")
		b.WriteString(t.Name)
		b.WriteString(" (\n")
		for i, c := range t.Columns {
			b.WriteString("    ")
			b.WriteString(c.Name)
			b.WriteString(" ")
			b.WriteString(c.DataType)
			if i < len(t.Columns)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(")\n")
	}
	return b.String()
}

// Registry holds the static configuration of the invoice schema: which
// tables and columns are exposed to querying, which extracted fields are
// required, and which date layouts are attempted during validation.
type Registry struct {
	requiredFields map[string]bool
	dateFormats    []string
	queryable      map[string][]string
}

// DefaultRequiredFields are the canonical fields whose absence marks a
// record for review when no override is configured.
var DefaultRequiredFields = []string{
	"vendor_name",
	"invoice_number",
	"invoice_date",
	"total_minor",
}

// DefaultDateFormats are attempted in order; the first layout that parses
// wins.
var DefaultDateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"02-Jan-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006/01/02",
}

// defaultQueryable lists the columns exposed to natural-language querying.
// Audit columns (raw extraction, confidences, flags, image key) are
// deliberately excluded.
var defaultQueryable = map[string][]string{
	"invoices": {
		"id", "vendor_name", "vendor_address", "vendor_phone", "vendor_email",
		"invoice_number", "invoice_date", "due_date", "po_number", "currency",
		"subtotal_minor", "tax_minor", "total_minor", "needs_review", "created_at",
	},
	"invoice_items": {
		"id", "invoice_id", "position", "description", "quantity",
		"unit_price_minor", "line_total_minor",
	},
}

// NewRegistry builds a Registry. Empty slices select the defaults.
func NewRegistry(requiredFields, dateFormats []string) (*Registry, error) {
	if len(requiredFields) == 0 {
		requiredFields = DefaultRequiredFields
	}
	if len(dateFormats) == 0 {
		dateFormats = DefaultDateFormats
	}
	req := make(map[string]bool, len(requiredFields))
	for _, f := range requiredFields {
		f = strings.TrimSpace(strings.ToLower(f))
		if f == "" {
			continue
		}
		if !knownField(f) {
			return nil, fmt.Errorf("schema: unknown required field %q", f)
		}
		req[f] = true
	}
	return &Registry{
		requiredFields: req,
		dateFormats:    dateFormats,
		queryable:      defaultQueryable,
	}, nil
}

func knownField(f string) bool {
	for _, c := range defaultQueryable["invoices"] {
		if c == f {
			return true
		}
	}
	return false
}

// IsRequired reports whether the named invoice field is required.
func (r *Registry) IsRequired(field string) bool {
	return r.requiredFields[field]
}

// RequiredFields returns the required field names in sorted order.
func (r *Registry) RequiredFields() []string {
	out := make([]string, 0, len(r.requiredFields))
	for f := range r.requiredFields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// DateFormats returns the ordered date layouts for extraction parsing.
func (r *Registry) DateFormats() []string {
	return r.dateFormats
}

// QueryableColumns returns the allow-listed columns for a table, or nil
// when the table is not exposed.
func (r *Registry) QueryableColumns(table string) []string {
	return r.queryable[strings.ToLower(table)]
}

// QueryableTables returns the exposed table names in sorted order.
func (r *Registry) QueryableTables() []string {
	out := make([]string, 0, len(r.queryable))
	for t := range r.queryable {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
