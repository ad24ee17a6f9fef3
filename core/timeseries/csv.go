// Package timeseries reads column-oriented CSV time series such as load,
// resource and hydrogen demand files.
package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a requested header is absent.
var ErrMissingColumn = errors.New("missing column")

// ReadColumns parses r and returns the requested columns in order. Headers
// are matched after trimming surrounding whitespace. Blank lines are skipped.
func ReadColumns(r io.Reader, headers ...string) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make([]int, len(headers))
	for i, h := range headers {
		idx[i] = -1
		for j, got := range head {
			if strings.TrimSpace(strings.TrimPrefix(got, "\ufeff")) == h {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, h)
		}
	}
	out := make([][]float64, len(headers))
	row := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		row++
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		for i, j := range idx {
			if j >= len(rec) {
				return nil, fmt.Errorf("row %d: %w: %q", row, ErrMissingColumn, headers[i])
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[j]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", row, headers[i], err)
			}
			out[i] = append(out[i], v)
		}
	}
	return out, nil
}

// ReadFile opens path and delegates to ReadColumns.
func ReadFile(path string, headers ...string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	cols, err := ReadColumns(f, headers...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cols, nil
}
