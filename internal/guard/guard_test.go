package guard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invosight/internal/domain"
	"invosight/internal/schema"
)

func testDescription() *schema.Description {
	return schema.NewDescription([]schema.Table{
		{Name: "invoices", Columns: []schema.Column{
			{Name: "id", DataType: "uuid"},
			{Name: "vendor_name", DataType: "text"},
			{Name: "invoice_date", DataType: "date"},
			{Name: "total_minor", DataType: "bigint"},
			{Name: "tax_minor", DataType: "bigint"},
		}},
		{Name: "invoice_items", Columns: []schema.Column{
			{Name: "invoice_id", DataType: "uuid"},
			{Name: "description", DataType: "text"},
			{Name: "quantity", DataType: "double precision"},
			{Name: "line_total_minor", DataType: "bigint"},
		}},
	})
}

func requireGuardKind(t *testing.T, err error, kind domain.GuardErrorKind) {
	t.Helper()
	var gerr *domain.GuardError
	require.True(t, errors.As(err, &gerr), "expected GuardError, got %v", err)
	assert.Equal(t, kind, gerr.Kind)
}

func TestCheck_SimpleSelectPasses(t *testing.T) {
	g := New(500)
	out, err := g.Check("SELECT vendor_name, total_minor FROM invoices", testDescription())
	require.NoError(t, err)
	assert.Equal(t, "SELECT vendor_name, total_minor FROM invoices\nLIMIT 500", out.SQL)
	assert.True(t, out.WasModified)
}

func TestCheck_ExistingLimitPreserved(t *testing.T) {
	g := New(500)
	out, err := g.Check("SELECT vendor_name FROM invoices LIMIT 10", testDescription())
	require.NoError(t, err)
	assert.Equal(t, "SELECT vendor_name FROM invoices LIMIT 10", out.SQL)
	assert.False(t, out.WasModified)
}

func TestCheck_TrailingSemicolonStripped(t *testing.T) {
	g := New(500)
	out, err := g.Check("SELECT vendor_name FROM invoices;", testDescription())
	require.NoError(t, err)
	assert.Equal(t, "SELECT vendor_name FROM invoices\nLIMIT 500", out.SQL)
}

func TestCheck_TrailingCommentCannotSwallowBound(t *testing.T) {
	g := New(500)
	out, err := g.Check("SELECT vendor_name FROM invoices -- show everything", testDescription())
	require.NoError(t, err)
	assert.Equal(t, "SELECT vendor_name FROM invoices -- show everything\nLIMIT 500", out.SQL)
	assert.True(t, out.WasModified)
}

func TestCheck_GroundedAggregationPasses(t *testing.T) {
	g := New(500)
	sql := "SELECT i.vendor_name, sum(it.line_total_minor) / 100.0 AS total " +
		"FROM invoices i JOIN invoice_items it ON it.invoice_id = i.id " +
		"GROUP BY i.vendor_name ORDER BY total DESC"
	out, err := g.Check(sql, testDescription())
	require.NoError(t, err)
	assert.True(t, out.WasModified)
}

func TestCheck_SelectAliasUsableInOrderBy(t *testing.T) {
	g := New(500)
	sql := "SELECT vendor_name, total_minor - tax_minor AS net FROM invoices ORDER BY net"
	_, err := g.Check(sql, testDescription())
	require.NoError(t, err)
}

func TestCheck_RejectsMultiStatement(t *testing.T) {
	g := New(500)
	_, err := g.Check("SELECT id FROM invoices; DELETE FROM invoices", testDescription())
	requireGuardKind(t, err, domain.GuardMultiStatementRejected)
}

func TestCheck_RejectsMutations(t *testing.T) {
	g := New(500)
	for _, sql := range []string{
		"DELETE FROM invoices",
		"INSERT INTO invoices (id) VALUES ('x')",
		"UPDATE invoices SET vendor_name = 'x'",
		"DROP TABLE invoices",
	} {
		_, err := g.Check(sql, testDescription())
		requireGuardKind(t, err, domain.GuardDisallowedStatementKind)
	}
}

func TestCheck_RejectsEmpty(t *testing.T) {
	g := New(500)
	_, err := g.Check("   ", testDescription())
	requireGuardKind(t, err, domain.GuardDisallowedStatementKind)
}

func TestCheck_RejectsUnparseable(t *testing.T) {
	g := New(500)
	_, err := g.Check("SELECT FROM WHERE", testDescription())
	requireGuardKind(t, err, domain.GuardDisallowedStatementKind)
}

func TestCheck_RejectsDoubleQuotes(t *testing.T) {
	g := New(500)
	_, err := g.Check(`SELECT "vendor_name" FROM invoices`, testDescription())
	requireGuardKind(t, err, domain.GuardDisallowedStatementKind)
}

func TestCheck_RejectsUnknownTable(t *testing.T) {
	g := New(500)
	_, err := g.Check("SELECT name FROM users", testDescription())
	requireGuardKind(t, err, domain.GuardUnknownIdentifier)
}

func TestCheck_RejectsUnknownColumn(t *testing.T) {
	g := New(500)
	_, err := g.Check("SELECT password FROM invoices", testDescription())
	requireGuardKind(t, err, domain.GuardUnknownIdentifier)
}

func TestCheck_RejectsUnknownQualifiedColumn(t *testing.T) {
	g := New(500)
	_, err := g.Check("SELECT i.raw_extraction FROM invoices i", testDescription())
	requireGuardKind(t, err, domain.GuardUnknownIdentifier)
}

func TestCheck_RejectsUnknownAlias(t *testing.T) {
	g := New(500)
	_, err := g.Check("SELECT x.vendor_name FROM invoices i", testDescription())
	requireGuardKind(t, err, domain.GuardUnknownIdentifier)
}

func TestCheck_RejectsDeniedFunction(t *testing.T) {
	g := New(500)
	for _, sql := range []string{
		"SELECT pg_sleep(10) FROM invoices",
		"SELECT vendor_name FROM invoices WHERE id = lo_import('/etc/passwd')",
	} {
		_, err := g.Check(sql, testDescription())
		requireGuardKind(t, err, domain.GuardDisallowedFunction)
	}
}

func TestCheck_AllowsOrdinaryFunctions(t *testing.T) {
	g := New(500)
	sql := "SELECT count(*), avg(total_minor), max(invoice_date) FROM invoices"
	_, err := g.Check(sql, testDescription())
	require.NoError(t, err)
}

func TestCheck_DerivedTablePasses(t *testing.T) {
	g := New(500)
	sql := "SELECT t.vendor_name, t.spend FROM " +
		"(SELECT vendor_name, sum(total_minor) AS spend FROM invoices GROUP BY vendor_name) t " +
		"ORDER BY t.spend DESC"
	_, err := g.Check(sql, testDescription())
	require.NoError(t, err)
}

func TestCheck_ZeroMaxRowsLeavesUnbounded(t *testing.T) {
	g := New(0)
	out, err := g.Check("SELECT id FROM invoices", testDescription())
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM invoices", out.SQL)
	assert.False(t, out.WasModified)
}
