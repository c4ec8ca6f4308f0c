package period

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ppiankov/periodize/internal/model"
	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a period table
type File struct {
	Periods   []model.Period `yaml:"periods"`
	Overrides []Override     `yaml:"overrides,omitempty"`
}

// Parse decodes and validates a YAML period table. Unknown keys are rejected
// so a misspelled field does not silently drop a boundary.
func Parse(data []byte) (*Table, *Overrides, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, nil, fmt.Errorf("failed to parse period table: %w", err)
	}

	table, err := NewTable(f.Periods)
	if err != nil {
		return nil, nil, err
	}

	overrides, err := NewOverrides(f.Overrides)
	if err != nil {
		return nil, nil, err
	}
	if err := overrides.checkAgainst(table); err != nil {
		return nil, nil, err
	}

	return table, overrides, nil
}

// LoadFile reads a YAML period table from path
func LoadFile(path string) (*Table, *Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read period table: %w", err)
	}
	table, overrides, err := Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, overrides, nil
}

// Marshal encodes a table and its overrides in the layout Parse accepts
func Marshal(table *Table, overrides *Overrides) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(File{Periods: table.Periods(), Overrides: overrides.Rules()}); err != nil {
		return nil, fmt.Errorf("failed to encode period table: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode period table: %w", err)
	}
	return buf.Bytes(), nil
}
