package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"

	"finassist/internal/domain"
	"finassist/internal/store"
)

// CSV reads the canonical CSV layout: a header row naming the eight
// columns in any order, then one record per transaction.
type CSV struct {
	name string
	open func(ctx context.Context) (io.ReadCloser, error)
}

// NewCSVFile reads a CSV from the local filesystem.
func NewCSVFile(path string) *CSV {
	return &CSV{
		name: path,
		open: func(context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// NewCSVGCS reads a CSV object from a Cloud Storage bucket.
func NewCSVGCS(bucket, object string) *CSV {
	return &CSV{
		name: fmt.Sprintf("gs://%s/%s", bucket, object),
		open: func(ctx context.Context) (io.ReadCloser, error) {
			data, err := downloadObject(ctx, bucket, object)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Rows implements the Source interface.
func (s *CSV) Rows(ctx context.Context) ([]store.Row, error) {
	rc, err := s.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("Rows: open %s: %w", s.name, err)
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("Rows: %s: %w", s.name, &domain.DataFormatError{Field: "header", Reason: "file has no header row"})
	}
	if err != nil {
		return nil, fmt.Errorf("Rows: read header of %s: %w", s.name, err)
	}

	index, err := headerIndex(header)
	if err != nil {
		return nil, fmt.Errorf("Rows: %s: %w", s.name, err)
	}

	var rows []store.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Rows: read %s: %w", s.name, err)
		}
		rows = append(rows, store.Row{
			Date:            field(record, index, ColDate),
			Account:         field(record, index, ColAccount),
			Category:        field(record, index, ColCategory),
			Merchant:        field(record, index, ColMerchant),
			TransactionType: field(record, index, ColType),
			Currency:        field(record, index, ColCurrency),
			Amount:          field(record, index, ColAmount),
			AmountUC:        field(record, index, ColAmountUC),
		})
	}
	return rows, nil
}

// headerIndex maps canonical column names to their positions. A missing
// required column fails the whole load.
func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, &domain.DataFormatError{Field: col, Reason: "missing column"}
		}
	}
	return index, nil
}

func field(record []string, index map[string]int, col string) string {
	i := index[col]
	if i >= len(record) {
		return ""
	}
	return record[i]
}

// downloadObject fetches a whole object into memory. Session inputs are
// small; streaming would only complicate the CSV decode.
func downloadObject(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	r, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object: %w", err)
	}
	return data, nil
}

var _ Source = (*CSV)(nil)
