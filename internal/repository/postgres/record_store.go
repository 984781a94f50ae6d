package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"invosight/internal/domain"
	"invosight/internal/port"
	"invosight/internal/schema"
)

type recordStore struct {
	db          *sqlx.DB
	registry    *schema.Registry
	execTimeout time.Duration
}

// NewRecordStore creates the query-side store adapter. execTimeout bounds
// every RunReadOnly call.
func NewRecordStore(db *sqlx.DB, registry *schema.Registry, execTimeout time.Duration) port.RecordStore {
	return &recordStore{db: db, registry: registry, execTimeout: execTimeout}
}

// DescribeSchema introspects the live database and intersects the result
// with the registry allow-list. A column present in the registry but
// missing from the database is silently dropped, so the translator never
// sees columns that would fail at execution.
func (s *recordStore) DescribeSchema(ctx context.Context) (*schema.Description, error) {
	tableNames := s.registry.QueryableTables()

	query, args, err := sqlx.In(
		`SELECT table_name, column_name, data_type
		 FROM information_schema.columns
		 WHERE table_schema = 'public' AND table_name IN (?)
		 ORDER BY table_name, ordinal_position`, tableNames)
	if err != nil {
		return nil, fmt.Errorf("recordStore.DescribeSchema: %w", err)
	}
	query = s.db.Rebind(query)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	defer func() { _ = rows.Close() }()

	live := map[string]map[string]string{}
	for rows.Next() {
		var table, column, dataType string
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			return nil, fmt.Errorf("recordStore.DescribeSchema scan: %w", err)
		}
		if live[table] == nil {
			live[table] = map[string]string{}
		}
		live[table][column] = dataType
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStoreError(err)
	}

	var tables []schema.Table
	for _, name := range tableNames {
		liveCols, ok := live[name]
		if !ok {
			continue
		}
		var cols []schema.Column
		for _, col := range s.registry.QueryableColumns(name) {
			if dataType, ok := liveCols[col]; ok {
				cols = append(cols, schema.Column{Name: col, DataType: dataType})
			}
		}
		if len(cols) > 0 {
			tables = append(tables, schema.Table{Name: name, Columns: cols})
		}
	}
	return schema.NewDescription(tables), nil
}

// RunReadOnly executes a guarded statement in a read-only transaction with
// a deadline. Rows beyond maxRows are discarded.
func (s *recordStore) RunReadOnly(ctx context.Context, query string, maxRows int) ([]domain.Column, [][]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, s.execTimeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, nil, classifyStoreError(err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryxContext(ctx, query)
	if err != nil {
		return nil, nil, classifyStoreError(err)
	}
	defer func() { _ = rows.Close() }()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, classifyStoreError(err)
	}
	columns := make([]domain.Column, len(colTypes))
	for i, ct := range colTypes {
		columns[i] = domain.Column{Name: ct.Name(), Type: ct.DatabaseTypeName()}
	}

	var out [][]interface{}
	for rows.Next() {
		if maxRows > 0 && len(out) >= maxRows {
			break
		}
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, nil, classifyStoreError(err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, classifyStoreError(err)
	}

	return columns, out, nil
}

// classifyStoreError maps store-native failures onto the domain taxonomy.
// Raw driver messages are wrapped, never surfaced directly.
func classifyStoreError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrQueryTimeout
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "57014": // query_canceled, raised when the deadline fires server-side
			return domain.ErrQueryTimeout
		case "42P01", "42703": // undefined_table, undefined_column
			return &domain.ExecError{
				Kind:        domain.ExecSchemaDrift,
				SafeMessage: "the schema changed while answering; please retry",
				Err:         err,
			}
		case "42883", "42804", "22P02": // undefined_function, datatype_mismatch, invalid_text_representation
			return &domain.ExecError{
				Kind:        domain.ExecTypeMismatch,
				SafeMessage: "the generated query used values of the wrong type",
				Err:         err,
			}
		case "08000", "08003", "08006", "57P01", "57P02", "57P03":
			return domain.ErrStoreUnavailable
		}
		return &domain.ExecError{
			Kind:        domain.ExecInternal,
			SafeMessage: "the query could not be executed",
			Err:         err,
		}
	}

	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return domain.ErrStoreUnavailable
	}

	return &domain.ExecError{
		Kind:        domain.ExecInternal,
		SafeMessage: "the query could not be executed",
		Err:         err,
	}
}
