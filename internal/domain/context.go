package domain

// Keys a grouped analysis context always carries. A scalar context has
// neither and maps metric names straight to values.
const (
	ContextKeyGroupBy = "group_by"
	ContextKeyGroups  = "groups"
)

// Context is the intermediate result computed from the transaction history
// before answer synthesis. It is either scalar (metric name to value) or
// grouped ("group_by" plus a "groups" list of per-group rows).
type Context map[string]any

// IsEmpty reports whether the context carries nothing to answer from. A
// grouped context with zero groups counts as empty even though the map
// itself has keys.
func (c Context) IsEmpty() bool {
	if len(c) == 0 {
		return true
	}
	groups, ok := c[ContextKeyGroups]
	if !ok {
		return false
	}
	switch g := groups.(type) {
	case []map[string]any:
		return len(g) == 0
	case []any:
		return len(g) == 0
	}
	return false
}
