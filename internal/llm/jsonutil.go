package llm

import (
	"strings"
)

// CleanModelJSON strips Markdown fences and surrounding chatter from a
// model reply that was asked to return raw JSON. Models ignore that
// instruction often enough that every caller cleans before unmarshalling.
func CleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			// Single-line weirdness; just return as-is.
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Extra safety: if there's still junk around the JSON value, keep only
	// the outermost object or array, whichever opens first.
	opener, closer := "{", "}"
	if i := strings.IndexAny(s, "{["); i != -1 && s[i] == '[' {
		opener, closer = "[", "]"
	}
	if start := strings.Index(s, opener); start != -1 {
		if end := strings.LastIndex(s, closer); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
