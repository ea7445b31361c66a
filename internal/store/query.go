package store

import (
	"fmt"
	"sort"

	"cloud.google.com/go/civil"

	"finassist/internal/domain"
)

// FilterByAccount returns the transactions belonging to one account,
// preserving their original relative order. An unknown account yields an
// empty slice, never an error; distinguishing "this user has no
// transactions" from "this user does not exist" is the caller's call.
func FilterByAccount(list []domain.Transaction, accountID string) []domain.Transaction {
	filtered := make([]domain.Transaction, 0)
	for _, t := range list {
		if t.Account == accountID {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// DateRange returns the earliest and latest transaction dates in the list.
func DateRange(list []domain.Transaction) (civil.Date, civil.Date, error) {
	if len(list) == 0 {
		return civil.Date{}, civil.Date{}, domain.ErrEmptyDataset
	}
	minDate, maxDate := list[0].Date, list[0].Date
	for _, t := range list[1:] {
		if t.Date.Before(minDate) {
			minDate = t.Date
		}
		if t.Date.After(maxDate) {
			maxDate = t.Date
		}
	}
	return minDate, maxDate, nil
}

// Meta derives the prompt-facing dataset summary: the covered date range
// plus sorted distinct categories and currencies. Sorting keeps prompts
// stable across runs for the same data.
func Meta(list []domain.Transaction) (domain.DatasetMeta, error) {
	start, end, err := DateRange(list)
	if err != nil {
		return domain.DatasetMeta{}, fmt.Errorf("Meta: %w", err)
	}
	return domain.DatasetMeta{
		DateStart:  start,
		DateEnd:    end,
		Categories: distinct(list, func(t domain.Transaction) string { return t.Category }),
		Currencies: distinct(list, func(t domain.Transaction) string { return t.Currency }),
	}, nil
}

// distinct collects the unique non-empty values of one field, sorted.
func distinct(list []domain.Transaction, field func(domain.Transaction) string) []string {
	seen := make(map[string]bool, len(list))
	values := make([]string, 0)
	for _, t := range list {
		v := field(t)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
