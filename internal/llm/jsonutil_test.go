package llm

import (
	"testing"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain object untouched",
			raw:  `{"is_relevant": true}`,
			want: `{"is_relevant": true}`,
		},
		{
			name: "json fence",
			raw:  "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "bare fence",
			raw:  "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "prose around object",
			raw:  "Here is the JSON you asked for:\n{\"a\": 1}\nHope that helps!",
			want: `{"a": 1}`,
		},
		{
			name: "array kept whole",
			raw:  "```json\n[{\"a\": 1}, {\"b\": 2}]\n```",
			want: `[{"a": 1}, {"b": 2}]`,
		},
		{
			name: "array chosen when it opens first",
			raw:  `[{"a": 1}]`,
			want: `[{"a": 1}]`,
		},
		{
			name: "leading and trailing whitespace",
			raw:  "  \n {\"a\": 1} \n ",
			want: `{"a": 1}`,
		},
		{
			name: "no json at all",
			raw:  "I cannot answer that.",
			want: "I cannot answer that.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("CleanModelJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}
