package messages

import (
	"testing"

	"finassist/internal/domain"
)

func TestMessagesCoverAllLanguages(t *testing.T) {
	languages := []string{domain.LanguageENG, domain.LanguageRUS, domain.LanguageGEO}

	lookups := []struct {
		name string
		fn   func(string) string
	}{
		{name: "Irrelevant", fn: Irrelevant},
		{name: "NoInformation", fn: NoInformation},
		{name: "GenerationFailed", fn: GenerationFailed},
		{name: "GraphNoData", fn: GraphNoData},
		{name: "NoTransactions", fn: NoTransactions},
	}

	for _, l := range lookups {
		for _, lang := range languages {
			if got := l.fn(lang); got == "" {
				t.Errorf("%s(%q) returned empty message", l.name, lang)
			}
		}
	}
}

func TestMessagesEnglishText(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "irrelevant",
			got:  Irrelevant(domain.LanguageENG),
			want: "Sorry, I can only answer questions about your financial transactions.",
		},
		{
			name: "no information",
			got:  NoInformation(domain.LanguageENG),
			want: "We don't have such information",
		},
		{
			name: "generation failed",
			got:  GenerationFailed(domain.LanguageENG),
			want: "Failed to generate response. Please try again.",
		},
		{
			name: "graph no data",
			got:  GraphNoData(domain.LanguageENG),
			want: "No data found.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestMessagesFallBackToEnglish(t *testing.T) {
	if got := Irrelevant("FRA"); got != Irrelevant(domain.LanguageENG) {
		t.Errorf("unknown language should fall back to English, got %q", got)
	}
	if got := GraphNoData(""); got != GraphNoData(domain.LanguageENG) {
		t.Errorf("empty language should fall back to English, got %q", got)
	}
}

func TestGraphNoDataRussian(t *testing.T) {
	if got := GraphNoData(domain.LanguageRUS); got != "Данные не найдены." {
		t.Errorf("got %q, want %q", got, "Данные не найдены.")
	}
}
