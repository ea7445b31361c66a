package domain

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TransactionType labels the direction of money movement on a transaction.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeOutcome TransactionType = "outcome"
)

// Transaction is one row of a user's transaction history.
// Amount is in the transaction's own currency; AmountUC is the same value
// converted to the dataset's unified currency, so cross-currency aggregates
// must always sum AmountUC.
type Transaction struct {
	Date     civil.Date      // from "date" (YYYY-MM-DD)
	Account  string          // from "account" - doubles as the user id
	Category string          // from "category"
	Merchant string          // from "merchant"
	Type     TransactionType // from "transaction_type" ("income" or "outcome")
	Currency string          // from "currency" (original currency code)
	Amount   decimal.Decimal // from "amount" (original currency)
	AmountUC decimal.Decimal // from "amount_uc" (unified currency)
}

// IsIncome reports whether the transaction adds money to the account.
func (t Transaction) IsIncome() bool {
	return t.Type == TypeIncome
}
