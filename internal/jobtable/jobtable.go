// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package jobtable parses a batch file into an ordered, validated table of
// named jobs.
package jobtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// NameColumn is the column holding the job name.
const NameColumn = "name"

// Row is one job of the batch. Values are trimmed.
type Row struct {
	Name   string
	Line   int
	header []string
	values []string
}

// Has reports whether the batch file has the column col.
// A column is present for every row even when the row's cell is empty.
func (r Row) Has(col string) bool {
	return slices.Contains(r.header, col)
}

// Value returns the trimmed cell of col.
func (r Row) Value(col string) (string, bool) {
	i := slices.Index(r.header, col)
	if i < 0 {
		return "", false
	}

	return r.values[i], true
}

// Fields returns a copy of the row as a column to value map.
func (r Row) Fields() map[string]string {
	out := make(map[string]string, len(r.header))
	for i, h := range r.header {
		out[h] = r.values[i]
	}

	return out
}

// Table is an ordered set of uniquely named rows.
type Table struct {
	header []string
	rows   []Row
}

// Header returns the column names in file order.
func (t *Table) Header() []string {
	return slices.Clone(t.header)
}

// Rows returns the rows in file order.
func (t *Table) Rows() []Row {
	return slices.Clone(t.rows)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Names returns the job names in file order.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, r.Name)
	}

	return out
}

// Render writes the table back as CSV.
func (t *Table) Render(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.header); err != nil {
		return err //nolint:wrapcheck
	}

	for _, r := range t.rows {
		if err := cw.Write(r.values); err != nil {
			return err //nolint:wrapcheck
		}
	}

	cw.Flush()

	return cw.Error() //nolint:wrapcheck
}

// String renders the table for the audit log.
func (t *Table) String() string {
	sb := &strings.Builder{}
	_ = t.Render(sb)

	return sb.String()
}

// ParseFile reads and parses the batch file at path.
func ParseFile(fs afero.Fs, path string, required []string) (*Table, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	defer f.Close() //nolint:errcheck

	return Parse(f, required)
}

// Parse reads a CSV batch file. The header and every cell are trimmed, blank
// rows are ignored and row order is preserved. Every column in required must
// be present and non-empty on every row; the name column always is.
func Parse(r io.Reader, required []string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 0

	var (
		records [][]string
		lines   []int
	)

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &ParseError{Line: pe.Line, Err: pe.Err}
			}

			return nil, &ParseError{Err: err}
		}

		line, _ := cr.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}

	if len(records) == 0 {
		return nil, &ParseError{Err: errors.New("no header row")}
	}

	header := trimAll(records[0])
	for i, h := range header {
		if h == "" {
			return nil, &ParseError{Line: lines[0], Err: fmt.Errorf("column %d has no name", i+1)}
		}

		if slices.Contains(header[:i], h) {
			return nil, &ParseError{Line: lines[0], Err: fmt.Errorf("column %q appears more than once", h)}
		}
	}

	if !slices.Contains(required, NameColumn) {
		required = append([]string{NameColumn}, required...)
	}

	for _, col := range required {
		if !slices.Contains(header, col) {
			return nil, &MissingColumnError{Column: col}
		}
	}

	nameIdx := slices.Index(header, NameColumn)
	t := &Table{header: header}
	seen := make(map[string][]int)

	var order []string

	for i, rec := range records[1:] {
		line := lines[i+1]

		values := trimAll(rec)
		if isBlank(values) {
			continue
		}

		for _, col := range required {
			if values[slices.Index(header, col)] == "" {
				return nil, &MissingValueError{Line: line, Column: col}
			}
		}

		name := values[nameIdx]
		if err := CheckName(name); err != nil {
			return nil, err
		}

		if _, ok := seen[name]; !ok {
			order = append(order, name)
		}

		seen[name] = append(seen[name], line)
		t.rows = append(t.rows, Row{Name: name, Line: line, header: header, values: values})
	}

	for _, name := range order {
		if dup := seen[name]; len(dup) > 1 {
			return nil, &DuplicateNameError{Name: name, Lines: dup}
		}
	}

	if len(t.rows) == 0 {
		return nil, &ParseError{Line: lines[0], Err: ErrNoRows}
	}

	return t, nil
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}

	return out
}

func isBlank(values []string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}

	return true
}
