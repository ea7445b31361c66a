package synthesis

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"finassist/internal/analysis"
	"finassist/internal/domain"
)

// FormatMoney renders a monetary value with exactly two decimal places and
// the symbol placement its currency uses: $10.65, £12.34, 50.25₾.
func FormatMoney(value decimal.Decimal, currency string) string {
	fixed := value.StringFixed(2)
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "USD":
		return "$" + fixed
	case "EUR":
		return "€" + fixed
	case "GBP":
		return "£" + fixed
	case "GEL":
		return fixed + "₾"
	case "RUB":
		return fixed + "₽"
	default:
		return fixed + " " + strings.ToUpper(strings.TrimSpace(currency))
	}
}

// FormatContext renders a computed context for the answer prompt with all
// money already formatted, so two-decimal rendering and symbol placement
// never depend on model arithmetic. Keys are sorted to keep the prompt
// stable for the same context.
func FormatContext(data domain.Context, currency string) string {
	groupBy, _ := data[domain.ContextKeyGroupBy].(string)
	if groupBy == "" {
		return formatScalar(data, currency)
	}
	return formatGrouped(data, groupBy, currency)
}

func formatScalar(data domain.Context, currency string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, formatValue(data[k], currency))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatGrouped(data domain.Context, groupBy, currency string) string {
	rows, err := analysis.ContextGroups(data)
	if err != nil {
		// Odd shape; render what we have rather than dropping the turn.
		return formatScalar(data, currency)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Grouped by %s:\n", groupBy)
	for _, row := range rows {
		label, _ := row[groupBy].(string)

		keys := make([]string, 0, len(row))
		for k := range row {
			if k == groupBy {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s %s", k, formatValue(row[k], currency)))
		}
		fmt.Fprintf(&b, "- %s: %s\n", label, strings.Join(parts, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatValue renders one context value. Decimals and floats are money;
// integers are counts and stay bare numbers.
func formatValue(v any, currency string) string {
	switch x := v.(type) {
	case decimal.Decimal:
		return FormatMoney(x, currency)
	case float64:
		return FormatMoney(decimal.NewFromFloat(x), currency)
	case float32:
		return FormatMoney(decimal.NewFromFloat32(x), currency)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case json.Number:
		if strings.ContainsAny(string(x), ".eE") {
			if d, err := decimal.NewFromString(x.String()); err == nil {
				return FormatMoney(d, currency)
			}
		}
		return x.String()
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return "none"
	default:
		return fmt.Sprintf("%v", x)
	}
}
