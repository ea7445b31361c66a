package domain

// Interface languages supported when formatting answers and fixed messages.
const (
	LanguageENG = "ENG"
	LanguageRUS = "RUS"
	LanguageGEO = "GEO"
)

// UserLocale carries the answer language and the user's home currency.
// Currency only affects how monetary values are rendered; aggregation always
// happens over the unified-currency amounts.
type UserLocale struct {
	Language string // "ENG", "RUS" or "GEO"
	Country  string // "USA", "GEO" or "RUS"
	Currency string // "USD", "GEL", "EUR" or "GBP"
}

// NormalizeLanguage maps an unknown or empty language code to English so a
// bad locale never blocks an answer.
func NormalizeLanguage(lang string) string {
	switch lang {
	case LanguageENG, LanguageRUS, LanguageGEO:
		return lang
	default:
		return LanguageENG
	}
}
