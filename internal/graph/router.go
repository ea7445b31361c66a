package graph

import "strings"

// graphKeywords marks comparison, superlative and frequency questions.
// Those need relationship traversals that the flat in-memory scan answers
// poorly, so they take the graph path when a database is configured.
var graphKeywords = []string{
	"сравни", "против", "compare", "vs", "versus",
	"топ", "top", "больше всего", "most",
	"часто", "чаще", "обычно", "предпочитаю", "often", "usually", "prefer",
}

// ShouldRoute reports whether the question should be answered from the
// graph, along with the keyword that matched so the decision can be logged.
func ShouldRoute(question string) (bool, string) {
	q := strings.ToLower(question)
	for _, kw := range graphKeywords {
		if strings.Contains(q, kw) {
			return true, kw
		}
	}
	return false, ""
}
