package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"finassist/internal/domain"
)

// budgetCheckEvery is how many rows pass between context checks while
// scanning, so a canceled turn stops promptly without a per-row check.
const budgetCheckEvery = 1024

// Exec validates and runs a plan against the transaction list. Every
// failure is a GeneratedCodeError: the plan, not the data, is at fault.
// The result is a scalar context (metric name to value) or a grouped one
// ("group_by" plus "groups"), with money values as decimals and counts as
// int64.
func Exec(ctx context.Context, plan Plan, transactions []domain.Transaction) (domain.Context, error) {
	if err := plan.Validate(); err != nil {
		return nil, &domain.GeneratedCodeError{Stage: domain.StageContext, Reason: "invalid plan", Err: err}
	}

	filtered, err := applyFilters(ctx, plan.Filters, transactions)
	if err != nil {
		return nil, err
	}

	if plan.GroupBy == GroupNone {
		return scalarContext(plan.Metrics, filtered), nil
	}
	return groupedContext(ctx, plan, filtered)
}

// matcher reports whether one transaction passes one filter.
type matcher func(domain.Transaction) bool

func applyFilters(ctx context.Context, filters []Filter, list []domain.Transaction) ([]domain.Transaction, error) {
	if len(filters) == 0 {
		return list, nil
	}

	matchers := make([]matcher, len(filters))
	for i, f := range filters {
		m, err := newMatcher(f)
		if err != nil {
			return nil, &domain.GeneratedCodeError{Stage: domain.StageContext, Reason: "invalid filter", Err: err}
		}
		matchers[i] = m
	}

	out := make([]domain.Transaction, 0, len(list))
	for i, t := range list {
		if i%budgetCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, &domain.GeneratedCodeError{Stage: domain.StageContext, Reason: "time budget exceeded", Err: err}
			}
		}
		keep := true
		for _, m := range matchers {
			if !m(t) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, t)
		}
	}
	return out, nil
}

func newMatcher(f Filter) (matcher, error) {
	switch f.Field {
	case FieldDate:
		return newDateMatcher(f)
	case FieldAmount, FieldAmountUC:
		return newAmountMatcher(f)
	default:
		return newStringMatcher(f)
	}
}

// newStringMatcher compares label fields case-insensitively; questions
// rarely match the exact casing stored in the data.
func newStringMatcher(f Filter) (matcher, error) {
	field := f.Field
	switch f.Op {
	case OpEq:
		want := f.Value
		return func(t domain.Transaction) bool {
			return strings.EqualFold(stringField(t, field), want)
		}, nil
	case OpNeq:
		want := f.Value
		return func(t domain.Transaction) bool {
			return !strings.EqualFold(stringField(t, field), want)
		}, nil
	case OpIn:
		want := f.Values
		return func(t domain.Transaction) bool {
			v := stringField(t, field)
			for _, w := range want {
				if strings.EqualFold(v, w) {
					return true
				}
			}
			return false
		}, nil
	case OpContains:
		want := strings.ToLower(f.Value)
		return func(t domain.Transaction) bool {
			return strings.Contains(strings.ToLower(stringField(t, field)), want)
		}, nil
	default:
		return nil, fmt.Errorf("operator %q not valid for field %q", f.Op, f.Field)
	}
}

func newDateMatcher(f Filter) (matcher, error) {
	switch f.Op {
	case OpBetween:
		if len(f.Values) != 2 {
			return nil, fmt.Errorf(`operator "between" needs exactly two values`)
		}
		from, err := civil.ParseDate(f.Values[0])
		if err != nil {
			return nil, err
		}
		to, err := civil.ParseDate(f.Values[1])
		if err != nil {
			return nil, err
		}
		return func(t domain.Transaction) bool {
			return !t.Date.Before(from) && !t.Date.After(to)
		}, nil
	default:
		want, err := civil.ParseDate(f.Value)
		if err != nil {
			return nil, err
		}
		switch f.Op {
		case OpEq:
			return func(t domain.Transaction) bool { return t.Date == want }, nil
		case OpNeq:
			return func(t domain.Transaction) bool { return t.Date != want }, nil
		case OpGte:
			return func(t domain.Transaction) bool { return !t.Date.Before(want) }, nil
		case OpLte:
			return func(t domain.Transaction) bool { return !t.Date.After(want) }, nil
		default:
			return nil, fmt.Errorf(`operator %q not valid for field "date"`, f.Op)
		}
	}
}

func newAmountMatcher(f Filter) (matcher, error) {
	field := f.Field
	switch f.Op {
	case OpBetween:
		if len(f.Values) != 2 {
			return nil, fmt.Errorf(`operator "between" needs exactly two values`)
		}
		from, err := decimal.NewFromString(f.Values[0])
		if err != nil {
			return nil, err
		}
		to, err := decimal.NewFromString(f.Values[1])
		if err != nil {
			return nil, err
		}
		return func(t domain.Transaction) bool {
			v := numericField(t, field)
			return v.GreaterThanOrEqual(from) && v.LessThanOrEqual(to)
		}, nil
	default:
		want, err := decimal.NewFromString(f.Value)
		if err != nil {
			return nil, err
		}
		switch f.Op {
		case OpEq:
			return func(t domain.Transaction) bool { return numericField(t, field).Equal(want) }, nil
		case OpNeq:
			return func(t domain.Transaction) bool { return !numericField(t, field).Equal(want) }, nil
		case OpGte:
			return func(t domain.Transaction) bool { return numericField(t, field).GreaterThanOrEqual(want) }, nil
		case OpLte:
			return func(t domain.Transaction) bool { return numericField(t, field).LessThanOrEqual(want) }, nil
		default:
			return nil, fmt.Errorf("operator %q not valid for field %q", f.Op, field)
		}
	}
}

func stringField(t domain.Transaction, field string) string {
	switch field {
	case FieldAccount:
		return t.Account
	case FieldCategory:
		return t.Category
	case FieldMerchant:
		return t.Merchant
	case FieldType:
		return string(t.Type)
	case FieldCurrency:
		return t.Currency
	}
	return ""
}

func numericField(t domain.Transaction, field string) decimal.Decimal {
	if field == FieldAmount {
		return t.Amount
	}
	return t.AmountUC
}

func scalarContext(metrics []Metric, list []domain.Transaction) domain.Context {
	out := make(domain.Context, len(metrics))
	for _, m := range metrics {
		out[m.Name] = computeMetric(m, list)
	}
	return out
}

// computeMetric aggregates one metric over a bucket. Money aggregates over
// an empty bucket come out as zero, mirroring a sum over nothing; counts
// are int64 so the synthesis layer can tell them apart from money.
func computeMetric(m Metric, list []domain.Transaction) any {
	if m.Agg == AggCount {
		return int64(len(list))
	}
	if len(list) == 0 {
		return decimal.Zero
	}

	switch m.Agg {
	case AggSum, AggAvg:
		sum := decimal.Zero
		for _, t := range list {
			sum = sum.Add(numericField(t, m.Field))
		}
		if m.Agg == AggSum {
			return sum
		}
		return sum.Div(decimal.NewFromInt(int64(len(list))))
	case AggMin:
		low := numericField(list[0], m.Field)
		for _, t := range list[1:] {
			if v := numericField(t, m.Field); v.LessThan(low) {
				low = v
			}
		}
		return low
	case AggMax:
		high := numericField(list[0], m.Field)
		for _, t := range list[1:] {
			if v := numericField(t, m.Field); v.GreaterThan(high) {
				high = v
			}
		}
		return high
	}
	return decimal.Zero
}

func groupedContext(ctx context.Context, plan Plan, list []domain.Transaction) (domain.Context, error) {
	type bucket struct {
		label string
		rows  []domain.Transaction
	}

	// Buckets keep first-appearance order so an unsorted plan is still
	// deterministic for the same input.
	index := make(map[string]int)
	buckets := make([]*bucket, 0)
	for i, t := range list {
		if i%budgetCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, &domain.GeneratedCodeError{Stage: domain.StageContext, Reason: "time budget exceeded", Err: err}
			}
		}
		label := groupLabel(plan.GroupBy, t)
		bi, ok := index[label]
		if !ok {
			if len(buckets) >= MaxGroups {
				return nil, &domain.GeneratedCodeError{
					Stage:  domain.StageContext,
					Reason: fmt.Sprintf("more than %d groups", MaxGroups),
				}
			}
			bi = len(buckets)
			index[label] = bi
			buckets = append(buckets, &bucket{label: label})
		}
		buckets[bi].rows = append(buckets[bi].rows, t)
	}

	groups := make([]map[string]any, len(buckets))
	for i, b := range buckets {
		row := make(map[string]any, len(plan.Metrics)+1)
		row[plan.GroupBy] = b.label
		for _, m := range plan.Metrics {
			row[m.Name] = computeMetric(m, b.rows)
		}
		groups[i] = row
	}

	sortGroups(groups, plan)
	if plan.Limit > 0 && len(groups) > plan.Limit {
		groups = groups[:plan.Limit]
	}

	return domain.Context{
		domain.ContextKeyGroupBy: plan.GroupBy,
		domain.ContextKeyGroups:  groups,
	}, nil
}

func groupLabel(groupBy string, t domain.Transaction) string {
	switch groupBy {
	case GroupCategory:
		return t.Category
	case GroupMerchant:
		return t.Merchant
	case GroupAccount:
		return t.Account
	case GroupCurrency:
		return t.Currency
	case GroupType:
		return string(t.Type)
	case GroupDate:
		return t.Date.String()
	case GroupMonth:
		return fmt.Sprintf("%04d-%02d", t.Date.Year, int(t.Date.Month))
	case GroupYear:
		return fmt.Sprintf("%04d", t.Date.Year)
	case GroupWeekday:
		return t.Date.In(time.UTC).Weekday().String()
	}
	return ""
}

// sortGroups orders by the first metric, ties broken by label, so "top"
// answers are stable across runs.
func sortGroups(groups []map[string]any, plan Plan) {
	if plan.Sort == SortNone || len(plan.Metrics) == 0 {
		return
	}
	key := plan.Metrics[0].Name
	desc := plan.Sort == SortDesc
	sort.SliceStable(groups, func(i, j int) bool {
		cmp := toDecimal(groups[i][key]).Cmp(toDecimal(groups[j][key]))
		if cmp == 0 {
			li, _ := groups[i][plan.GroupBy].(string)
			lj, _ := groups[j][plan.GroupBy].(string)
			return li < lj
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// toDecimal reads a metric value in any of the forms it takes: native from
// Exec, or string/number after a trip through JSON.
func toDecimal(v any) decimal.Decimal {
	switch x := v.(type) {
	case decimal.Decimal:
		return x
	case int64:
		return decimal.NewFromInt(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case float64:
		return decimal.NewFromFloat(x)
	case json.Number:
		if d, err := decimal.NewFromString(x.String()); err == nil {
			return d
		}
	case string:
		if d, err := decimal.NewFromString(x); err == nil {
			return d
		}
	}
	return decimal.Zero
}
