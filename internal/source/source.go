// Package source loads raw transaction rows from the configured backend.
// Every source produces the same canonical Row slice; store.Load is the
// single validation point downstream, so the loaders here stay dumb glue.
package source

import (
	"context"
	"fmt"
	"regexp"

	"finassist/internal/store"
)

// Canonical input column names. Sources map their backend fields onto
// these; unknown columns such as transaction_id are ignored.
const (
	ColDate     = "date"
	ColAccount  = "account"
	ColCategory = "category"
	ColMerchant = "merchant"
	ColType     = "transaction_type"
	ColCurrency = "currency"
	ColAmount   = "amount"
	ColAmountUC = "amount_uc"
)

// requiredColumns lists every column a source must provide, in canonical
// order.
var requiredColumns = []string{
	ColDate, ColAccount, ColCategory, ColMerchant,
	ColType, ColCurrency, ColAmount, ColAmountUC,
}

// Source loads raw transaction rows in backend order.
type Source interface {
	Rows(ctx context.Context) ([]store.Row, error)
}

// identPattern accepts plain table identifiers, optionally qualified with
// dots (dataset.table, project.dataset.table).
var identPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// checkIdent rejects table names that cannot be safely spliced into a
// query. Table names come from configuration, not users, but the check
// keeps a typo from turning into SQL.
func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid table identifier %q", name)
	}
	return nil
}
