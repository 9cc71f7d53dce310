// Package table assembles query results into rows and exports them.
package table

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jacoelho/rex/internal/column"
	"github.com/jacoelho/rex/internal/query"
	"github.com/jacoelho/rex/internal/record"
)

// ErrFormat indicates an unknown output format name.
var ErrFormat = errors.New("unknown output format")

// Row is one record's extracted column values, in column order.
type Row = *record.Map

// Table is an ordered sequence of rows sharing a reconciled column set.
type Table []Row

// Format selects how Produce serializes a table.
type Format int

const (
	FormatRaw Format = iota
	FormatCSV
	FormatPretty
)

// ParseFormat maps a format name to its Format value.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "raw":
		return FormatRaw, nil
	case "csv":
		return FormatCSV, nil
	case "pretty":
		return FormatPretty, nil
	default:
		return 0, fmt.Errorf("%w: %q (want raw, csv or pretty)", ErrFormat, name)
	}
}

// Build queries every record with every column specification and
// returns one row per record, in record order.
//
// Plain columns assign their result under the declared column name.
// Columns with return_multiple_columns merge every derived key directly
// into the row; colliding keys are overwritten in column declaration
// order, last write wins. Any cell failure aborts the build.
func Build(records []any, columns column.Columns) (Table, error) {
	t := make(Table, 0, len(records))

	for _, rec := range records {
		row := record.NewMap()
		for _, col := range columns {
			value, err := query.Match(col.Spec, rec)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", col.Name, err)
			}

			if !col.Spec.ReturnMultipleColumns {
				row.Set(col.Name, value)
				continue
			}

			// A multi-column query that matched nothing contributes
			// no columns to the row.
			derived, ok := value.(*record.Map)
			if !ok {
				continue
			}
			for _, key := range derived.Keys() {
				v, _ := derived.Get(key)
				row.Set(key, v)
			}
		}
		t = append(t, row)
	}

	return t, nil
}

// Produce builds a table from records and columns and serializes it in
// the requested format.
func Produce(records []any, columns column.Columns, format Format) (string, error) {
	t, err := Build(records, columns)
	if err != nil {
		return "", err
	}

	switch format {
	case FormatCSV:
		return t.CSV()
	case FormatPretty:
		return t.Pretty(), nil
	default:
		return t.JSON()
	}
}

// fields returns the reconciled column set: the first row's keys in
// order, then keys appearing only in later rows, sorted.
func (t Table) fields() []string {
	if len(t) == 0 {
		return nil
	}

	fields := t[0].Keys()
	seen := make(map[string]bool, len(fields))
	for _, key := range fields {
		seen[key] = true
	}

	var extra []string
	for _, row := range t[1:] {
		for _, key := range row.Keys() {
			if !seen[key] {
				seen[key] = true
				extra = append(extra, key)
			}
		}
	}
	sort.Strings(extra)

	return append(fields, extra...)
}
