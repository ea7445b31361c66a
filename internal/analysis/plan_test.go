package analysis

import (
	"strings"
	"testing"
)

func validPlan() Plan {
	return Plan{
		Filters: []Filter{
			{Field: FieldType, Op: OpEq, Value: "outcome"},
			{Field: FieldDate, Op: OpBetween, Values: []string{"2024-01-01", "2024-01-31"}},
		},
		GroupBy: GroupCategory,
		Metrics: []Metric{
			{Name: "total", Agg: AggSum, Field: FieldAmountUC},
			{Name: "transactions", Agg: AggCount},
		},
		Sort:  SortDesc,
		Limit: 5,
	}
}

func TestPlanValidate(t *testing.T) {
	if err := validPlan().Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestPlanValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Plan)
		wantMsg string
	}{
		{
			name:    "no metrics",
			mutate:  func(p *Plan) { p.Metrics = nil },
			wantMsg: "at least one metric",
		},
		{
			name: "too many filters",
			mutate: func(p *Plan) {
				p.Filters = make([]Filter, MaxFilters+1)
				for i := range p.Filters {
					p.Filters[i] = Filter{Field: FieldCategory, Op: OpEq, Value: "Food"}
				}
			},
			wantMsg: "too many filters",
		},
		{
			name: "too many metrics",
			mutate: func(p *Plan) {
				p.Metrics = nil
				for i := 0; i <= MaxMetrics; i++ {
					p.Metrics = append(p.Metrics, Metric{Name: strings.Repeat("m", i+1), Agg: AggCount})
				}
			},
			wantMsg: "too many metrics",
		},
		{
			name:    "limit too large",
			mutate:  func(p *Plan) { p.Limit = MaxLimit + 1 },
			wantMsg: "limit",
		},
		{
			name:    "negative limit",
			mutate:  func(p *Plan) { p.Limit = -1 },
			wantMsg: "limit",
		},
		{
			name:    "unknown sort",
			mutate:  func(p *Plan) { p.Sort = "descending" },
			wantMsg: "unknown sort",
		},
		{
			name:    "unknown group_by",
			mutate:  func(p *Plan) { p.GroupBy = "vendor" },
			wantMsg: "unknown group_by",
		},
		{
			name:    "unknown filter field",
			mutate:  func(p *Plan) { p.Filters[0].Field = "description" },
			wantMsg: "unknown field",
		},
		{
			name:    "ordered operator on label field",
			mutate:  func(p *Plan) { p.Filters[0] = Filter{Field: FieldCategory, Op: OpGte, Value: "Food"} },
			wantMsg: "not valid for field",
		},
		{
			name:    "contains on date",
			mutate:  func(p *Plan) { p.Filters[1] = Filter{Field: FieldDate, Op: OpContains, Value: "2024"} },
			wantMsg: "not valid for field",
		},
		{
			name:    "eq without value",
			mutate:  func(p *Plan) { p.Filters[0].Value = "" },
			wantMsg: "needs a value",
		},
		{
			name:    "in without values",
			mutate:  func(p *Plan) { p.Filters[0] = Filter{Field: FieldCategory, Op: OpIn} },
			wantMsg: "at least one value",
		},
		{
			name:    "between with one value",
			mutate:  func(p *Plan) { p.Filters[1].Values = []string{"2024-01-01"} },
			wantMsg: "exactly two values",
		},
		{
			name:    "unparsable date operand",
			mutate:  func(p *Plan) { p.Filters[1].Values = []string{"January 1st", "2024-01-31"} },
			wantMsg: "not a YYYY-MM-DD date",
		},
		{
			name:    "unparsable amount operand",
			mutate:  func(p *Plan) { p.Filters[0] = Filter{Field: FieldAmountUC, Op: OpGte, Value: "lots"} },
			wantMsg: "not a number",
		},
		{
			name:    "metric without name",
			mutate:  func(p *Plan) { p.Metrics[0].Name = "" },
			wantMsg: "needs a name",
		},
		{
			name:    "unknown aggregation",
			mutate:  func(p *Plan) { p.Metrics[0].Agg = "median" },
			wantMsg: "unknown aggregation",
		},
		{
			name:    "sum over label field",
			mutate:  func(p *Plan) { p.Metrics[0].Field = FieldCategory },
			wantMsg: `"amount" or "amount_uc"`,
		},
		{
			name:    "duplicate metric names",
			mutate:  func(p *Plan) { p.Metrics[1] = Metric{Name: "total", Agg: AggCount} },
			wantMsg: "duplicate name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := validPlan()
			tt.mutate(&plan)

			err := plan.Validate()
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Validate() error = %q, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestPlanValidate_CountNeedsNoField(t *testing.T) {
	plan := Plan{Metrics: []Metric{{Name: "purchases", Agg: AggCount}}}
	if err := plan.Validate(); err != nil {
		t.Errorf("Validate() error = %v, count should not require a field", err)
	}
}
