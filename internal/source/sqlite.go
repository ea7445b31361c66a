package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"finassist/internal/store"
)

// SQLite reads rows from a table in a local SQLite database, for sessions
// backed by an exported ledger file. path accepts the driver's DSN form,
// so pragmas may be passed as query parameters.
type SQLite struct {
	path  string
	table string
}

// NewSQLite builds a source over the given database file and table.
func NewSQLite(path, table string) *SQLite {
	if table == "" {
		table = "transactions"
	}
	return &SQLite{path: path, table: table}
}

// Rows implements the Source interface.
func (s *SQLite) Rows(ctx context.Context) ([]store.Row, error) {
	if err := checkIdent(s.table); err != nil {
		return nil, fmt.Errorf("Rows: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("Rows: open sqlite %s: %w", s.path, err)
	}
	defer db.Close()

	query := fmt.Sprintf(
		`SELECT date, account, category, merchant, transaction_type, currency, amount, amount_uc FROM %q ORDER BY date`,
		s.table,
	)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("Rows: query %s: %w", s.table, err)
	}
	defer rows.Close()

	var out []store.Row
	for rows.Next() {
		var r store.Row
		if err := rows.Scan(&r.Date, &r.Account, &r.Category, &r.Merchant, &r.TransactionType, &r.Currency, &r.Amount, &r.AmountUC); err != nil {
			return nil, fmt.Errorf("Rows: scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Rows: iterate: %w", err)
	}
	return out, nil
}

var _ Source = (*SQLite)(nil)
