// Package table is the in-memory list engine behind every admin screen: search,
// AND-combined filters, one sort key, fixed-size pages and CSV export of the
// filtered rows.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrUnknownField = errors.New("unknown field")

type Kind int

const (
	Text Kind = iota
	Number
)

// Field is one named column. Text fields set Text, numeric fields set Number.
type Field[T any] struct {
	Name   string
	Header string
	Kind   Kind
	Text   func(T) string
	Number func(T) decimal.Decimal
}

func (f Field[T]) value(row T) string {
	if f.Kind == Number {
		return f.Number(row).String()
	}
	return f.Text(row)
}

func (f Field[T]) compare(a, b T) int {
	if f.Kind == Number {
		return f.Number(a).Cmp(f.Number(b))
	}
	return strings.Compare(strings.ToLower(f.Text(a)), strings.ToLower(f.Text(b)))
}

// Filter is a row predicate. A nil Filter is the identity ("all").
type Filter[T any] func(T) bool

type Schema[T any] struct {
	Fields []Field[T]
	Search []string
	CSV    []string
}

type Query struct {
	Search  string
	SortKey string
	Desc    bool
}

func (s *Schema[T]) field(name string) (Field[T], error) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, nil
		}
	}
	return Field[T]{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

func (s *Schema[T]) fields(names []string) ([]Field[T], error) {
	out := make([]Field[T], 0, len(names))
	for _, n := range names {
		f, err := s.field(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Apply returns a new slice holding the rows that match the search term and every
// filter, sorted by q.SortKey. The sort is stable in both directions. rows is not
// modified.
func (s *Schema[T]) Apply(rows []T, q Query, filters ...Filter[T]) ([]T, error) {
	searchable, err := s.fields(s.Search)
	if err != nil {
		return nil, err
	}
	var sortField Field[T]
	if q.SortKey != "" {
		if sortField, err = s.field(q.SortKey); err != nil {
			return nil, err
		}
	}

	term := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if !matchAll(row, filters) {
			continue
		}
		if term != "" && !matchSearch(row, term, searchable) {
			continue
		}
		out = append(out, row)
	}

	if q.SortKey != "" {
		sort.SliceStable(out, func(i, j int) bool {
			if q.Desc {
				return sortField.compare(out[j], out[i]) < 0
			}
			return sortField.compare(out[i], out[j]) < 0
		})
	}
	return out, nil
}

func matchAll[T any](row T, filters []Filter[T]) bool {
	for _, f := range filters {
		if f != nil && !f(row) {
			return false
		}
	}
	return true
}

func matchSearch[T any](row T, term string, fields []Field[T]) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f.value(row)), term) {
			return true
		}
	}
	return false
}

// WriteCSV writes a header line and one record per row using the schema's CSV columns.
func (s *Schema[T]) WriteCSV(w io.Writer, rows []T) error {
	cols, err := s.fields(s.CSV)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, f := range cols {
		header[i] = f.Header
		if header[i] == "" {
			header[i] = f.Name
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, f := range cols {
			record[i] = f.value(row)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// TextField and NumberField keep schema literals short.
func TextField[T any](name, header string, fn func(T) string) Field[T] {
	return Field[T]{Name: name, Header: header, Kind: Text, Text: fn}
}

func NumberField[T any](name, header string, fn func(T) decimal.Decimal) Field[T] {
	return Field[T]{Name: name, Header: header, Kind: Number, Number: fn}
}

func IntField[T any](name, header string, fn func(T) int) Field[T] {
	return NumberField(name, header, func(row T) decimal.Decimal { return decimal.NewFromInt(int64(fn(row))) })
}
