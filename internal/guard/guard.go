package guard

import (
	"fmt"
	"strings"

	"github.com/xwb1989/sqlparser"

	"invosight/internal/domain"
	"invosight/internal/schema"
)

// deniedFunctions lists functions a read query never legitimately needs.
// Mostly PostgreSQL escape hatches, plus the usual timing primitives.
var deniedFunctions = map[string]bool{
	"pg_sleep":             true,
	"pg_read_file":         true,
	"pg_read_binary_file":  true,
	"pg_ls_dir":            true,
	"pg_terminate_backend": true,
	"pg_cancel_backend":    true,
	"dblink":               true,
	"dblink_exec":          true,
	"lo_import":            true,
	"lo_export":            true,
	"set_config":           true,
	"query_to_xml":         true,
	"setseed":              true,
	"sleep":                true,
	"benchmark":            true,
	"load_file":            true,
	"readfile":             true,
}

// Guard validates translator-produced statements against a schema snapshot
// before they are allowed anywhere near the store.
type Guard struct {
	maxRows int
}

// New creates a Guard. maxRows is the row bound injected into unbounded
// statements.
func New(maxRows int) *Guard {
	return &Guard{maxRows: maxRows}
}

// Check runs every guard rule against the candidate. It returns a
// GuardedQuery on success and a *domain.GuardError naming the violated
// rule otherwise. A statement the dialect cannot parse is rejected, never
// waved through.
func (g *Guard) Check(candidate string, desc *schema.Description) (*domain.GuardedQuery, error) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(candidate), ";"))
	if trimmed == "" {
		return nil, &domain.GuardError{
			Kind:   domain.GuardDisallowedStatementKind,
			Detail: "empty statement",
		}
	}

	pieces, err := sqlparser.SplitStatementToPieces(trimmed)
	if err != nil {
		return nil, &domain.GuardError{
			Kind:   domain.GuardDisallowedStatementKind,
			Detail: fmt.Sprintf("unparseable statement: %v", err),
		}
	}
	if len(pieces) != 1 {
		return nil, &domain.GuardError{
			Kind:   domain.GuardMultiStatementRejected,
			Detail: fmt.Sprintf("%d statements submitted", len(pieces)),
		}
	}

	// The parser speaks a MySQL dialect where double quotes delimit
	// strings, not identifiers as in PostgreSQL. Rejecting them outright
	// keeps the parsed shape and the executed shape identical.
	if strings.ContainsRune(trimmed, '"') {
		return nil, &domain.GuardError{
			Kind:   domain.GuardDisallowedStatementKind,
			Detail: "double-quoted tokens are not allowed",
		}
	}

	stmt, err := sqlparser.Parse(trimmed)
	if err != nil {
		return nil, &domain.GuardError{
			Kind:   domain.GuardDisallowedStatementKind,
			Detail: fmt.Sprintf("unparseable statement: %v", err),
		}
	}

	var hasLimit bool
	switch s := stmt.(type) {
	case *sqlparser.Select:
		hasLimit = s.Limit != nil
	case *sqlparser.Union:
		hasLimit = s.Limit != nil
	default:
		return nil, &domain.GuardError{
			Kind:   domain.GuardDisallowedStatementKind,
			Detail: fmt.Sprintf("only SELECT is allowed, got %T", stmt),
		}
	}

	if gerr := checkIdentifiers(stmt, desc); gerr != nil {
		return nil, gerr
	}
	if gerr := checkFunctions(stmt); gerr != nil {
		return nil, gerr
	}

	out := &domain.GuardedQuery{SQL: trimmed}
	if !hasLimit && g.maxRows > 0 {
		// Appended to the original text rather than regenerated from the
		// AST, so PostgreSQL sees exactly what the translator wrote. On a
		// new line, or a trailing -- comment would swallow the bound.
		out.SQL = fmt.Sprintf("%s\nLIMIT %d", trimmed, g.maxRows)
		out.WasModified = true
	}
	return out, nil
}

// checkIdentifiers grounds every table and column reference in the schema
// snapshot. Aliases introduced by the statement itself (table aliases,
// derived tables, select-list aliases) are tracked and permitted.
func checkIdentifiers(stmt sqlparser.Statement, desc *schema.Description) *domain.GuardError {
	// qualifier name (alias or table) -> underlying table name, or "" for
	// derived tables whose columns cannot be grounded.
	sources := map[string]string{}
	selectAliases := map[string]bool{}

	collect := func(node sqlparser.SQLNode) (bool, error) {
		switch n := node.(type) {
		case *sqlparser.AliasedTableExpr:
			switch expr := n.Expr.(type) {
			case sqlparser.TableName:
				table := expr.Name.String()
				if !desc.HasTable(table) {
					return false, &domain.GuardError{
						Kind:   domain.GuardUnknownIdentifier,
						Detail: fmt.Sprintf("table %q is not queryable", table),
					}
				}
				key := strings.ToLower(table)
				if !n.As.IsEmpty() {
					key = strings.ToLower(n.As.String())
				}
				sources[key] = strings.ToLower(table)
			case *sqlparser.Subquery:
				if !n.As.IsEmpty() {
					sources[strings.ToLower(n.As.String())] = ""
				}
			}
		case *sqlparser.AliasedExpr:
			if !n.As.IsEmpty() {
				selectAliases[n.As.Lowered()] = true
			}
		}
		return true, nil
	}
	if err := sqlparser.Walk(collect, stmt); err != nil {
		if gerr, ok := err.(*domain.GuardError); ok {
			return gerr
		}
		return &domain.GuardError{Kind: domain.GuardUnknownIdentifier, Detail: err.Error()}
	}

	verify := func(node sqlparser.SQLNode) (bool, error) {
		col, ok := node.(*sqlparser.ColName)
		if !ok {
			return true, nil
		}
		name := col.Name.Lowered()

		if !col.Qualifier.IsEmpty() {
			qualifier := strings.ToLower(col.Qualifier.Name.String())
			table, known := sources[qualifier]
			if !known {
				return false, &domain.GuardError{
					Kind:   domain.GuardUnknownIdentifier,
					Detail: fmt.Sprintf("unknown table or alias %q", qualifier),
				}
			}
			// Derived-table columns are shaped by the (already grounded)
			// subquery, so they pass.
			if table == "" {
				return true, nil
			}
			if !desc.HasColumn(table, name) {
				return false, &domain.GuardError{
					Kind:   domain.GuardUnknownIdentifier,
					Detail: fmt.Sprintf("column %q does not exist on %q", name, table),
				}
			}
			return true, nil
		}

		if selectAliases[name] {
			return true, nil
		}
		for _, table := range sources {
			if table == "" {
				// A derived table is in scope; its output columns are not
				// enumerable here.
				return true, nil
			}
			if desc.HasColumn(table, name) {
				return true, nil
			}
		}
		return false, &domain.GuardError{
			Kind:   domain.GuardUnknownIdentifier,
			Detail: fmt.Sprintf("column %q is not in the queryable schema", name),
		}
	}
	if err := sqlparser.Walk(verify, stmt); err != nil {
		if gerr, ok := err.(*domain.GuardError); ok {
			return gerr
		}
		return &domain.GuardError{Kind: domain.GuardUnknownIdentifier, Detail: err.Error()}
	}

	return nil
}

func checkFunctions(stmt sqlparser.Statement) *domain.GuardError {
	walker := func(node sqlparser.SQLNode) (bool, error) {
		fn, ok := node.(*sqlparser.FuncExpr)
		if !ok {
			return true, nil
		}
		name := fn.Name.Lowered()
		if deniedFunctions[name] {
			return false, &domain.GuardError{
				Kind:   domain.GuardDisallowedFunction,
				Detail: fmt.Sprintf("function %q is not allowed", name),
			}
		}
		return true, nil
	}
	if err := sqlparser.Walk(walker, stmt); err != nil {
		if gerr, ok := err.(*domain.GuardError); ok {
			return gerr
		}
		return &domain.GuardError{Kind: domain.GuardDisallowedFunction, Detail: err.Error()}
	}
	return nil
}
