package report

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchemaMismatch is returned when a scraped table lacks a required column.
var ErrSchemaMismatch = errors.New("schema mismatch")

// SchemaError names the dataset and the columns it is missing.
type SchemaError struct {
	Dataset string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s table missing column(s) %s", ErrSchemaMismatch, e.Dataset, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaMismatch
}

// Field is one expected input column. Aliases are accepted in place of Name.
type Field struct {
	Name     string
	Aliases  []string
	Required bool
}

// Schema lists the input columns a builder reads.
type Schema struct {
	Dataset string
	Fields  []Field
}

// Bind maps each field name to its index in columns. Optional fields that are
// absent are left out of the result.
func (s Schema) Bind(columns []string) (map[string]int, error) {
	positions := make(map[string]int, len(columns))
	for i, c := range columns {
		positions[strings.TrimSpace(c)] = i
	}

	bound := make(map[string]int, len(s.Fields))
	var missing []string
	for _, f := range s.Fields {
		idx, ok := positions[f.Name]
		for _, alias := range f.Aliases {
			if ok {
				break
			}
			idx, ok = positions[alias]
		}
		switch {
		case ok:
			bound[f.Name] = idx
		case f.Required:
			missing = append(missing, f.Name)
		}
	}

	if len(missing) > 0 {
		return nil, &SchemaError{Dataset: s.Dataset, Missing: missing}
	}
	return bound, nil
}

// known reports whether column is one of the schema's names or aliases.
func (s Schema) known(column string) bool {
	column = strings.TrimSpace(column)
	for _, f := range s.Fields {
		if f.Name == column {
			return true
		}
		for _, a := range f.Aliases {
			if a == column {
				return true
			}
		}
	}
	return false
}
