package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"COEAnalytics/internal/domain/models"
)

// ReadCSV streams rows of a headered CSV to fn in batches of batchSize.
// Header names are lower-cased and trimmed; empty cells are kept as "" so the
// normalizer can report them. It returns the number of data rows read.
func ReadCSV(r io.Reader, batchSize int, fn func([]models.RawRow) error) (int, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	total := 0
	batch := make([]models.RawRow, 0, batchSize)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, fmt.Errorf("read csv line %d: %w", total+2, err)
		}
		row := make(models.RawRow, len(cols))
		for i, c := range cols {
			if i < len(rec) {
				row[c] = strings.TrimSpace(rec[i])
			} else {
				row[c] = ""
			}
		}
		batch = append(batch, row)
		total++
		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return total, err
			}
			batch = make([]models.RawRow, 0, batchSize)
		}
	}
	if len(batch) > 0 {
		if err := fn(batch); err != nil {
			return total, err
		}
	}
	return total, nil
}
