// Package input reads the tabular desired-state file driving a run.
//
// Columns are addressed case-insensitively. The header occupies physical
// line 1, so the first data row reports as line 2 in error messages.
package input

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	syncerrors "github.com/systmms/accountsync/internal/errors"
)

// Table holds all rows of one input file.
type Table struct {
	Header []string
	Rows   []Row

	index map[string]int
}

// Row is a single record plus its logical line number for error reporting.
type Row struct {
	Line   int
	Values []string

	table *Table
}

// ReadFile opens and parses a CSV desired-state file.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, syncerrors.UserError{
			Message:    fmt.Sprintf("Failed to open input file %s", path),
			Suggestion: "Check the file path and permissions",
			Err:        err,
		}
	}
	defer f.Close()

	return Read(f)
}

// Read parses CSV content with a header row.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, syncerrors.UserError{
				Message:    "Input file is empty",
				Suggestion: "The first line must be a header row naming the columns",
			}
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	t := &Table{
		Header: header,
		index:  make(map[string]int, len(header)),
	}
	for i, name := range header {
		t.index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	line := 1
	for {
		record, err := cr.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, syncerrors.UserError{
				Message:    fmt.Sprintf("Malformed CSV at line %d", line),
				Details:    err.Error(),
				Suggestion: "Check for unbalanced quotes or a wrong field count",
				Err:        err,
			}
		}
		t.Rows = append(t.Rows, Row{Line: line, Values: record, table: t})
	}

	return t, nil
}

// HasColumn reports whether the header names the column (case-insensitive).
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[strings.ToLower(name)]
	return ok
}

// Get returns the value of the named column, or "" when the column is
// absent from the header.
func (r Row) Get(name string) string {
	v, _ := r.Lookup(name)
	return v
}

// Lookup returns the value of the named column and whether the column
// exists in the header at all.
func (r Row) Lookup(name string) (string, bool) {
	if r.table == nil {
		return "", false
	}
	i, ok := r.table.index[strings.ToLower(name)]
	if !ok || i >= len(r.Values) {
		return "", ok
	}
	return r.Values[i], true
}

// Columns returns the header of the table this row belongs to.
func (r Row) Columns() []string {
	if r.table == nil {
		return nil
	}
	return r.table.Header
}

// WithValue returns a copy of the row with the named column replaced.
// Used by the outcome recorder to scrub secret columns before persisting.
func (r Row) WithValue(name, value string) Row {
	if r.table == nil {
		return r
	}
	i, ok := r.table.index[strings.ToLower(name)]
	if !ok {
		return r
	}
	values := make([]string, len(r.Values))
	copy(values, r.Values)
	if i < len(values) {
		values[i] = value
	}
	out := r
	out.Values = values
	return out
}
