package domain

import (
	"cloud.google.com/go/civil"
)

// DatasetMeta summarizes a transaction slice for prompt construction: the
// covered date range plus the distinct categories and currencies that occur
// in the data.
type DatasetMeta struct {
	DateStart  civil.Date
	DateEnd    civil.Date
	Categories []string
	Currencies []string
}
