// Package dataset reads and writes the tabular files periodize enriches.
// A Table keeps every input column untouched and in order; enrichment only
// adds or overwrites the output columns.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrMissingColumn is returned when the dating column is absent
	ErrMissingColumn = errors.New("missing column")
	// ErrInvalidSeparator is returned for separators csv cannot use
	ErrInvalidSeparator = errors.New("invalid separator")
)

const utf8BOM = "\ufeff"

// Table is a CSV file held in memory
type Table struct {
	Header []string
	Rows   [][]string
}

// ParseSeparator turns a configured separator into a rune. "tab" and "\t"
// both mean a tab character.
func ParseSeparator(s string) (rune, error) {
	switch s {
	case "", ",":
		return ',', nil
	case "tab", `\t`, "\t":
		return '\t', nil
	}

	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSeparator, s)
	}
	return r, nil
}

// Read parses a header line and the rows that follow it. Rows may be ragged;
// quoting is lenient because museum exports often contain stray quotes.
func Read(r io.Reader, sep rune) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = sep
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty dataset: no header line")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	t := &Table{Header: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		t.Rows = append(t.Rows, record)
	}

	return t, nil
}

// ReadFile reads a dataset from path
func ReadFile(path string, sep rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Read(f, sep)
}

// Column returns the index of the named column
func (t *Table) Column(name string) (int, bool) {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i, true
		}
	}
	return -1, false
}

// Cell returns row's value in column idx, or "" for a short row
func (t *Table) Cell(row, idx int) string {
	if idx < 0 || idx >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][idx]
}

// ensureColumn returns the index of name, appending the column when absent.
// Every row is padded to the header width.
func (t *Table) ensureColumn(name string) int {
	idx, ok := t.Column(name)
	if !ok {
		t.Header = append(t.Header, name)
		idx = len(t.Header) - 1
	}

	for i, row := range t.Rows {
		for len(row) < len(t.Header) {
			row = append(row, "")
		}
		t.Rows[i] = row
	}
	return idx
}

// Write encodes the table as CSV
func Write(w io.Writer, t *Table, sep rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = sep

	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes the table to path via a temp file and rename
func WriteFile(path string, t *Table, sep rune) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".periodize-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := Write(tmp, t, sep); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
