package source

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"finassist/internal/store"
)

// bqRow maps one result record of the canonical transaction query.
type bqRow struct {
	Date            string `bigquery:"date"`
	Account         string `bigquery:"account"`
	Category        string `bigquery:"category"`
	Merchant        string `bigquery:"merchant"`
	TransactionType string `bigquery:"transaction_type"`
	Currency        string `bigquery:"currency"`
	Amount          string `bigquery:"amount"`
	AmountUC        string `bigquery:"amount_uc"`
}

// BigQuery reads rows from a warehouse table. Since optionally bounds how
// far back the session reaches; the zero date loads everything.
type BigQuery struct {
	projectID string
	table     string
	since     civil.Date
}

// NewBigQuery builds a source over a dataset-qualified table name
// ("finance.transactions").
func NewBigQuery(projectID, table string, since civil.Date) *BigQuery {
	return &BigQuery{projectID: projectID, table: table, since: since}
}

// Rows implements the Source interface.
func (s *BigQuery) Rows(ctx context.Context) ([]store.Row, error) {
	if err := checkIdent(s.table); err != nil {
		return nil, fmt.Errorf("Rows: %w", err)
	}

	client, err := bigquery.NewClient(ctx, s.projectID)
	if err != nil {
		return nil, fmt.Errorf("Rows: bigquery client: %w", err)
	}
	defer client.Close()

	query := fmt.Sprintf(`
		SELECT
			CAST(date AS STRING) AS date,
			account,
			category,
			merchant,
			transaction_type,
			currency,
			CAST(amount AS STRING) AS amount,
			CAST(amount_uc AS STRING) AS amount_uc
		FROM `+"`%s`", s.table)
	if s.since.IsValid() {
		query += "\n\t\tWHERE date >= @since"
	}
	query += "\n\t\tORDER BY date"

	q := client.Query(query)
	if s.since.IsValid() {
		q.Parameters = []bigquery.QueryParameter{
			{Name: "since", Value: s.since},
		}
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("Rows: query read: %w", err)
	}

	var rows []store.Row
	for {
		var r bqRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Rows: iter next: %w", err)
		}
		rows = append(rows, store.Row{
			Date:            r.Date,
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

var _ Source = (*BigQuery)(nil)
