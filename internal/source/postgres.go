package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"finassist/internal/store"
)

// postgresRow maps one record of the canonical transactions table.
type postgresRow struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	Date            time.Time `bun:"date"`
	Account         string    `bun:"account"`
	Category        string    `bun:"category"`
	Merchant        string    `bun:"merchant"`
	TransactionType string    `bun:"transaction_type"`
	Currency        string    `bun:"currency"`
	Amount          string    `bun:"amount"`
	AmountUC        string    `bun:"amount_uc"`
}

// Postgres reads rows from a PostgreSQL table.
type Postgres struct {
	dsn   string
	table string
}

// NewPostgres builds a source over the given DSN and table.
func NewPostgres(dsn, table string) *Postgres {
	if table == "" {
		table = "transactions"
	}
	return &Postgres{dsn: dsn, table: table}
}

// Rows implements the Source interface.
func (s *Postgres) Rows(ctx context.Context) ([]store.Row, error) {
	if err := checkIdent(s.table); err != nil {
		return nil, fmt.Errorf("Rows: %w", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(s.dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	var records []postgresRow
	err := db.NewSelect().
		Model(&records).
		ModelTableExpr("? AS t", bun.Ident(s.table)).
		Order("date ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("Rows: postgres select from %s: %w", s.table, err)
	}

	rows := make([]store.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, store.Row{
			Date:            r.Date.Format("2006-01-02"),
			Account:         r.Account,
			Category:        r.Category,
			Merchant:        r.Merchant,
			TransactionType: r.TransactionType,
			Currency:        r.Currency,
			Amount:          r.Amount,
			AmountUC:        r.AmountUC,
		})
	}
	return rows, nil
}

var _ Source = (*Postgres)(nil)
