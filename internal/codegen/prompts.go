package codegen

import (
	"fmt"
	"strings"

	"finassist/internal/domain"
)

const systemPrompt = "You are a helpful assistant that builds analysis plans for financial data."

const contextPromptTemplate = `You are given a list of financial transactions. Each transaction has the following fields:
- date: the date of the transaction (YYYY-MM-DD)
- account: the account identifier
- category: the spending category of the transaction
- merchant: the merchant name
- transaction_type: either "income" or "outcome"
- currency: the currency code of the original transaction
- amount: the transaction amount in its original currency
- amount_uc: the transaction amount converted to the user's default currency

Use amount_uc for any total, comparison or grouping across currencies. Use amount only when the question is explicitly about amounts in one original currency.

Respond with a JSON object with exactly these five fields:
- "is_relevant": boolean, true when the question can be answered from the transaction data
- "needs_diagram": boolean, true when the user asked for a chart or one would clearly help
- "context_plan": an analysis plan object as described below, or null when is_relevant is false
- "explanation": a short plain-language description of how the plan answers the question
- "plot": a plot object as described below, or null when needs_diagram is false

The analysis plan selects, groups and aggregates transactions:
{"filters": [...], "group_by": "...", "metrics": [...], "sort": "...", "limit": N}
- filters: up to 16 conditions combined with AND, each {"field": ..., "op": ..., "value": ...} or {"field": ..., "op": ..., "values": [...]}. Fields: date, account, category, merchant, transaction_type, currency, amount, amount_uc. Ops for label fields: eq, neq, in, contains. Ops for date and amount fields: eq, neq, gte, lte, between. "in" and "between" take "values"; every other op takes "value". Dates are YYYY-MM-DD strings; amounts are decimal number strings.
- group_by: one of category, merchant, account, currency, transaction_type, date, month, year, weekday. Omit it for a single set of totals.
- metrics: 1 to 8 results, each {"name": result key, "agg": one of sum, count, avg, min, max, "field": "amount" or "amount_uc"}. count needs no field.
- sort: "asc" or "desc" over the first metric, or omit.
- limit: keep only the first N groups after sorting (1 to 100), or omit.

The plot object describes the diagram over the grouped result:
{"kind": "bar", "line" or "pie", "title": chart title, "x": the group_by dimension, "y": a metric name}

If the question is not about the user's financial transactions, or asks about dates outside the known range, respond with exactly:
{"is_relevant": false, "needs_diagram": false, "context_plan": null, "explanation": "", "plot": null}

Example: for "top 3 spending categories in January 2024" a good context_plan is:
{"filters": [{"field": "transaction_type", "op": "eq", "value": "outcome"}, {"field": "date", "op": "between", "values": ["2024-01-01", "2024-01-31"]}], "group_by": "category", "metrics": [{"name": "total", "agg": "sum", "field": "amount_uc"}], "sort": "desc", "limit": 3}

Input Context:
Current date: %s
Transactions date range: %s to %s
User's default currency: %s
User's language: %s
Unique categories: %s
Unique currencies: %s

Question: %s

Return ONLY valid raw JSON.
Do NOT wrap the response in code fences.`

// buildPrompt embeds the dataset summary and the question into the plan
// prompt. The current date is the latest transaction date, so "this month"
// style questions resolve against the data rather than the wall clock.
func buildPrompt(question string, meta domain.DatasetMeta, locale domain.UserLocale) string {
	return fmt.Sprintf(contextPromptTemplate,
		meta.DateEnd,
		meta.DateStart,
		meta.DateEnd,
		locale.Currency,
		domain.NormalizeLanguage(locale.Language),
		strings.Join(meta.Categories, ", "),
		strings.Join(meta.Currencies, ", "),
		question,
	)
}
