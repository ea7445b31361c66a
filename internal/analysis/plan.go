// Package analysis defines the typed analysis plan the model fills in
// instead of emitting source code, and executes it against a transaction
// list. The plan grammar is deliberately small: composable filters, one
// optional group-by dimension, a handful of aggregations, sort and top-N.
// Everything outside that grammar is rejected before execution.
package analysis

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Transaction fields a plan may reference.
const (
	FieldDate     = "date"
	FieldAccount  = "account"
	FieldCategory = "category"
	FieldMerchant = "merchant"
	FieldType     = "transaction_type"
	FieldCurrency = "currency"
	FieldAmount   = "amount"
	FieldAmountUC = "amount_uc"
)

// Filter operators.
const (
	OpEq       = "eq"
	OpNeq      = "neq"
	OpIn       = "in"
	OpContains = "contains"
	OpGte      = "gte"
	OpLte      = "lte"
	OpBetween  = "between"
)

// Aggregations a metric may apply.
const (
	AggSum   = "sum"
	AggCount = "count"
	AggAvg   = "avg"
	AggMin   = "min"
	AggMax   = "max"
)

// Group-by dimensions. The date buckets are derived from the transaction
// date; an empty group_by makes the plan scalar.
const (
	GroupNone     = ""
	GroupCategory = "category"
	GroupMerchant = "merchant"
	GroupAccount  = "account"
	GroupCurrency = "currency"
	GroupType     = "transaction_type"
	GroupDate     = "date"
	GroupMonth    = "month"
	GroupYear     = "year"
	GroupWeekday  = "weekday"
)

// Sort orders over the first metric.
const (
	SortNone = ""
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Budgets a plan must stay within. They bound the work one model-authored
// plan can demand, not the size of the user's data.
const (
	MaxFilters   = 16
	MaxMetrics   = 8
	MaxLimit     = 100
	MaxGroups    = 500
	MaxPlanBytes = 16 << 10
)

// Plan is one analysis over the transaction list: filter, optionally group,
// aggregate, then sort and truncate. The model fills it in via structured
// output; Exec validates and runs it.
type Plan struct {
	Filters []Filter `json:"filters,omitempty"`
	GroupBy string   `json:"group_by,omitempty"`
	Metrics []Metric `json:"metrics"`
	Sort    string   `json:"sort,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// Filter keeps transactions matching one predicate; multiple filters are
// combined with AND. Value carries the operand for single-operand
// operators, Values for "in" and "between".
type Filter struct {
	Field  string   `json:"field"`
	Op     string   `json:"op"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// Metric names one aggregated value in the resulting context. Field picks
// the money column for sum/avg/min/max and is ignored for count.
type Metric struct {
	Name  string `json:"name"`
	Agg   string `json:"agg"`
	Field string `json:"field,omitempty"`
}

// Validate rejects a plan that leaves the supported grammar or exceeds the
// execution budgets. A valid plan is guaranteed to execute without operand
// parse failures.
func (p Plan) Validate() error {
	if len(p.Filters) > MaxFilters {
		return fmt.Errorf("too many filters: %d, limit %d", len(p.Filters), MaxFilters)
	}
	if len(p.Metrics) == 0 {
		return errors.New("plan needs at least one metric")
	}
	if len(p.Metrics) > MaxMetrics {
		return fmt.Errorf("too many metrics: %d, limit %d", len(p.Metrics), MaxMetrics)
	}
	if p.Limit < 0 || p.Limit > MaxLimit {
		return fmt.Errorf("limit %d out of range 0..%d", p.Limit, MaxLimit)
	}
	switch p.Sort {
	case SortNone, SortAsc, SortDesc:
	default:
		return fmt.Errorf("unknown sort %q", p.Sort)
	}
	if !validGroupBy(p.GroupBy) {
		return fmt.Errorf("unknown group_by %q", p.GroupBy)
	}

	for i, f := range p.Filters {
		if err := f.validate(); err != nil {
			return fmt.Errorf("filter %d: %w", i+1, err)
		}
	}

	names := make(map[string]bool, len(p.Metrics))
	for i, m := range p.Metrics {
		if err := m.validate(); err != nil {
			return fmt.Errorf("metric %d: %w", i+1, err)
		}
		if names[m.Name] {
			return fmt.Errorf("metric %d: duplicate name %q", i+1, m.Name)
		}
		names[m.Name] = true
	}
	return nil
}

func validGroupBy(groupBy string) bool {
	switch groupBy {
	case GroupNone, GroupCategory, GroupMerchant, GroupAccount, GroupCurrency,
		GroupType, GroupDate, GroupMonth, GroupYear, GroupWeekday:
		return true
	}
	return false
}

func (f Filter) validate() error {
	switch f.Field {
	case FieldDate:
		return f.validateOperands(f.Op, parseDateOperand)
	case FieldAmount, FieldAmountUC:
		return f.validateOperands(f.Op, parseAmountOperand)
	case FieldAccount, FieldCategory, FieldMerchant, FieldType, FieldCurrency:
		switch f.Op {
		case OpEq, OpNeq, OpContains:
			if f.Value == "" {
				return fmt.Errorf("operator %q needs a value", f.Op)
			}
			return nil
		case OpIn:
			if len(f.Values) == 0 {
				return errors.New(`operator "in" needs at least one value`)
			}
			return nil
		default:
			return fmt.Errorf("operator %q not valid for field %q", f.Op, f.Field)
		}
	default:
		return fmt.Errorf("unknown field %q", f.Field)
	}
}

// validateOperands checks the ordered-field operators (date and amounts)
// and that every operand parses.
func (f Filter) validateOperands(op string, parse func(string) error) error {
	switch op {
	case OpEq, OpNeq, OpGte, OpLte:
		if err := parse(f.Value); err != nil {
			return fmt.Errorf("field %q: %w", f.Field, err)
		}
		return nil
	case OpBetween:
		if len(f.Values) != 2 {
			return errors.New(`operator "between" needs exactly two values`)
		}
		for _, v := range f.Values {
			if err := parse(v); err != nil {
				return fmt.Errorf("field %q: %w", f.Field, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("operator %q not valid for field %q", op, f.Field)
	}
}

func parseDateOperand(v string) error {
	if _, err := civil.ParseDate(v); err != nil {
		return fmt.Errorf("%q is not a YYYY-MM-DD date", v)
	}
	return nil
}

func parseAmountOperand(v string) error {
	if _, err := decimal.NewFromString(v); err != nil {
		return fmt.Errorf("%q is not a number", v)
	}
	return nil
}

func (m Metric) validate() error {
	if m.Name == "" {
		return errors.New("metric needs a name")
	}
	switch m.Agg {
	case AggCount:
		return nil
	case AggSum, AggAvg, AggMin, AggMax:
		if m.Field != FieldAmount && m.Field != FieldAmountUC {
			return fmt.Errorf(`aggregation %q needs field "amount" or "amount_uc", got %q`, m.Agg, m.Field)
		}
		return nil
	default:
		return fmt.Errorf("unknown aggregation %q", m.Agg)
	}
}
