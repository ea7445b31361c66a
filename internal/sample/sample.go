// Package sample generates a demo transaction dataset in the canonical
// CSV layout, for trying the assistant without real data.
package sample

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"cloud.google.com/go/civil"

	"finassist/internal/source"
	"finassist/internal/store"
)

// Options control the generated dataset. Zero values fall back to the
// defaults: 200 rows between 2023-09-01 and 2024-02-28.
type Options struct {
	Rows  int
	Start civil.Date
	End   civil.Date
	Seed  int64
}

var categories = []string{"Food", "Transport", "Entertainment", "Shopping", "Health", "Bills", "Salary", "Freelance"}

var merchants = map[string][]string{
	"Food":          {"WHOLE FOODS", "STARBUCKS", "MCDONALDS", "LOCAL RESTAURANT", "GROCERY STORE"},
	"Transport":     {"UBER", "LYFT", "GAS STATION", "PUBLIC TRANSIT", "PARKING"},
	"Entertainment": {"NETFLIX", "SPOTIFY", "CINEMA", "CONCERT VENUE", "STEAM"},
	"Shopping":      {"AMAZON", "TARGET", "WALMART", "BEST BUY", "ONLINE STORE"},
	"Health":        {"PHARMACY", "GYM MEMBERSHIP", "DOCTOR OFFICE", "DENTAL CLINIC"},
	"Bills":         {"ELECTRIC COMPANY", "WATER UTILITY", "INTERNET PROVIDER", "PHONE COMPANY"},
	"Salary":        {"EMPLOYER INC", "COMPANY LLC"},
	"Freelance":     {"CLIENT A", "CLIENT B", "UPWORK", "FIVERR"},
}

var currencies = []string{"USD", "EUR", "GBP"}

var accounts = []string{"checking_001", "savings_001", "credit_card_001"}

// conversionRates convert each currency into USD, the unified currency of
// the sample set.
var conversionRates = map[string]float64{"USD": 1.0, "EUR": 1.1, "GBP": 1.25}

// Generate builds date-sorted raw rows. The same seed always produces the
// same dataset.
func Generate(opts Options) []store.Row {
	if opts.Rows <= 0 {
		opts.Rows = 200
	}
	start := opts.Start
	if !start.IsValid() {
		start = civil.Date{Year: 2023, Month: time.September, Day: 1}
	}
	end := opts.End
	if !end.IsValid() {
		end = civil.Date{Year: 2024, Month: time.February, Day: 28}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	days := end.DaysSince(start)
	if days < 0 {
		days = 0
	}

	rows := make([]store.Row, 0, opts.Rows)
	for i := 0; i < opts.Rows; i++ {
		date := start.AddDays(rng.Intn(days + 1))
		category := categories[rng.Intn(len(categories))]

		transactionType := "outcome"
		var lo, hi float64
		switch category {
		case "Salary", "Freelance":
			transactionType = "income"
			lo, hi = 1000, 5000
		case "Bills":
			lo, hi = 50, 300
		case "Shopping":
			lo, hi = 20, 500
		case "Food":
			lo, hi = 5, 150
		case "Transport":
			lo, hi = 3, 80
		case "Entertainment":
			lo, hi = 10, 200
		default:
			lo, hi = 10, 300
		}

		currency := pick(rng, currencies)
		amount := round2(lo + rng.Float64()*(hi-lo))
		amountUC := round2(amount * conversionRates[currency])

		rows = append(rows, store.Row{
			Date:            date.String(),
			Account:         pick(rng, accounts),
			Category:        category,
			Merchant:        pick(rng, merchants[category]),
			TransactionType: transactionType,
			Currency:        currency,
			Amount:          formatAmount(amount),
			AmountUC:        formatAmount(amountUC),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows
}

// WriteCSV writes rows in the canonical column order with a header row.
func WriteCSV(w io.Writer, rows []store.Row) error {
	cw := csv.NewWriter(w)

	header := []string{
		source.ColDate, source.ColAccount, source.ColCategory, source.ColMerchant,
		source.ColType, source.ColCurrency, source.ColAmount, source.ColAmountUC,
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("WriteCSV: %w", err)
	}
	for _, r := range rows {
		record := []string{r.Date, r.Account, r.Category, r.Merchant, r.TransactionType, r.Currency, r.Amount, r.AmountUC}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("WriteCSV: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func pick(rng *rand.Rand, list []string) string {
	return list[rng.Intn(len(list))]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
