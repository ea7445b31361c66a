// Package messages holds the fixed user-visible strings the pipeline
// returns without spending a model call. Every message exists in all
// supported languages and is returned verbatim, so callers and tests can
// assert exact equality.
package messages

import (
	"finassist/internal/domain"
)

// Irrelevant is the reply for questions the model judged unrelated to the
// user's financial transactions.
func Irrelevant(lang string) string { return pick(lang, irrelevant) }

// NoInformation is the reply when the computed context is empty: the
// question was understood but the data holds no answer.
func NoInformation(lang string) string { return pick(lang, noInformation) }

// GenerationFailed is the generic reply for any turn that failed for
// infrastructure reasons. The user may simply ask again.
func GenerationFailed(lang string) string { return pick(lang, generationFailed) }

// GraphNoData is the reply when a graph query ran fine but matched nothing.
func GraphNoData(lang string) string { return pick(lang, graphNoData) }

// NoTransactions is the reply when the requested account has no
// transactions at all.
func NoTransactions(lang string) string { return pick(lang, noTransactions) }

var irrelevant = map[string]string{
	domain.LanguageENG: "Sorry, I can only answer questions about your financial transactions.",
	domain.LanguageRUS: "Извините, я могу отвечать только на вопросы о ваших финансовых транзакциях.",
	domain.LanguageGEO: "უკაცრავად, მე შემიძლია ვუპასუხო მხოლოდ კითხვებს თქვენი ფინანსური ტრანზაქციების შესახებ.",
}

var noInformation = map[string]string{
	domain.LanguageENG: "We don't have such information",
	domain.LanguageRUS: "У нас нет такой информации",
	domain.LanguageGEO: "ჩვენ არ გვაქვს ასეთი ინფორმაცია",
}

var generationFailed = map[string]string{
	domain.LanguageENG: "Failed to generate response. Please try again.",
	domain.LanguageRUS: "Не удалось сгенерировать ответ. Пожалуйста, попробуйте еще раз.",
	domain.LanguageGEO: "პასუხის გენერირება ვერ მოხერხდა. გთხოვთ, სცადოთ ხელახლა.",
}

var graphNoData = map[string]string{
	domain.LanguageENG: "No data found.",
	domain.LanguageRUS: "Данные не найдены.",
	domain.LanguageGEO: "მონაცემები ვერ მოიძებნა.",
}

var noTransactions = map[string]string{
	domain.LanguageENG: "You don't have any transactions yet.",
	domain.LanguageRUS: "У вас пока нет транзакций.",
	domain.LanguageGEO: "თქვენ ჯერ არ გაქვთ ტრანზაქციები.",
}

func pick(lang string, m map[string]string) string {
	if s, ok := m[domain.NormalizeLanguage(lang)]; ok {
		return s
	}
	return m[domain.LanguageENG]
}
