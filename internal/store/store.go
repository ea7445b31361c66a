// Package store owns the session's transaction data: validating raw input
// rows into domain transactions and answering the read-only list queries
// the rest of the pipeline is built on.
package store

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"finassist/internal/domain"
)

// Row is one raw input record before validation. Every field arrives as
// text regardless of the source; Load is the single place that parses and
// validates them.
type Row struct {
	Date            string
	Account         string
	Category        string
	Merchant        string
	TransactionType string
	Currency        string
	Amount          string
	AmountUC        string
}

// Store holds a session's validated transactions. The backing slice is
// never handed out directly, so the data stays immutable for the lifetime
// of the session and can be shared across goroutines without copying.
type Store struct {
	transactions []domain.Transaction
}

// Load validates raw rows and builds a Store. The first bad row fails the
// whole load with a DataFormatError; a partially loaded dataset would
// silently skew every aggregate computed from it.
func Load(rows []Row) (*Store, error) {
	transactions := make([]domain.Transaction, 0, len(rows))
	for i, row := range rows {
		t, err := parseRow(i+1, row)
		if err != nil {
			return nil, fmt.Errorf("Load: %w", err)
		}
		transactions = append(transactions, t)
	}
	return &Store{transactions: transactions}, nil
}

// New builds a Store from already-validated transactions, for sources that
// produce typed values directly.
func New(transactions []domain.Transaction) *Store {
	owned := make([]domain.Transaction, len(transactions))
	copy(owned, transactions)
	return &Store{transactions: owned}
}

// All returns a copy of every transaction in load order.
func (s *Store) All() []domain.Transaction {
	out := make([]domain.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// Len returns the number of transactions held.
func (s *Store) Len() int {
	return len(s.transactions)
}

// parseRow converts one raw row into a Transaction. rowNum is 1-based and
// excludes the header, matching how users count lines in their files.
func parseRow(rowNum int, r Row) (domain.Transaction, error) {
	var t domain.Transaction

	date, err := civil.ParseDate(strings.TrimSpace(r.Date))
	if err != nil {
		return t, &domain.DataFormatError{Row: rowNum, Field: "date", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", r.Date)}
	}

	account := strings.TrimSpace(r.Account)
	if account == "" {
		return t, &domain.DataFormatError{Row: rowNum, Field: "account", Reason: "missing value"}
	}

	txType, err := parseTransactionType(r.TransactionType)
	if err != nil {
		return t, &domain.DataFormatError{Row: rowNum, Field: "transaction_type", Reason: err.Error()}
	}

	currency := strings.TrimSpace(r.Currency)
	if currency == "" {
		return t, &domain.DataFormatError{Row: rowNum, Field: "currency", Reason: "missing value"}
	}

	amount, err := parseAmount(r.Amount)
	if err != nil {
		return t, &domain.DataFormatError{Row: rowNum, Field: "amount", Reason: err.Error()}
	}

	amountUC, err := parseAmount(r.AmountUC)
	if err != nil {
		return t, &domain.DataFormatError{Row: rowNum, Field: "amount_uc", Reason: err.Error()}
	}

	t = domain.Transaction{
		Date:     date,
		Account:  account,
		Category: strings.TrimSpace(r.Category),
		Merchant: strings.TrimSpace(r.Merchant),
		Type:     txType,
		Currency: currency,
		Amount:   amount,
		AmountUC: amountUC,
	}
	return t, nil
}

// parseTransactionType normalizes the raw value for case-insensitive
// comparison and rejects anything but the two known types.
func parseTransactionType(raw string) (domain.TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(domain.TypeIncome):
		return domain.TypeIncome, nil
	case string(domain.TypeOutcome):
		return domain.TypeOutcome, nil
	default:
		return "", fmt.Errorf("%q is not \"income\" or \"outcome\"", raw)
	}
}

func parseAmount(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%q is not a number", raw)
	}
	if value.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%q must not be negative", raw)
	}
	return value, nil
}
