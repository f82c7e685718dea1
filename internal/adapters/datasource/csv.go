// Package datasource loads the flat-file users, peer assignments and reference
// catalog into a read-only Directory.
package datasource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/peereval/internal/domain/errs"
)

const utf8BOM = "\ufeff"

// table is a parsed CSV file with a header lookup.
type table struct {
	cols map[string]int
	rows [][]string
}

// get returns the trimmed value of column name in row, or "" when absent.
func (t *table) get(row []string, name string) string {
	i, ok := t.cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// readTable reads path and checks that every required column is present.
// A missing or unreadable file is an errs.ErrDataSourceMissing error.
func readTable(op, path string, required ...string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(op, errs.ErrDataSourceMissing, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errs.Wrap(op, errs.ErrDataSourceMissing, fmt.Errorf("%s: %w", path, ErrEmptyFile))
	}
	if err != nil {
		return nil, errs.Wrap(op, errs.ErrDataSourceMissing, fmt.Errorf("%s: %w", path, err))
	}

	t := &table{cols: make(map[string]int, len(header))}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		t.cols[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, c := range required {
		if _, ok := t.cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, errs.Wrap(op, errs.ErrDataSourceMissing,
			fmt.Errorf("%s: %w: %s", path, ErrMissingColumns, strings.Join(missing, ", ")))
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				// Skip the malformed line and keep reading.
				continue
			}
			return nil, errs.Wrap(op, errs.ErrDataSourceMissing, fmt.Errorf("%s: %w", path, err))
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}
