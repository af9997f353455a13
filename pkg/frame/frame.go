// Package frame provides the tabular container produced by flattening: an
// ordered set of equal-length named columns plus a row index.
package frame

import (
	"github.com/ajitpratap0/rootflat/pkg/errors"
	"github.com/ajitpratap0/rootflat/pkg/values"
)

// Index labels the rows of a Frame
type Index interface {
	Len() int
	// Levels names the index levels; a RangeIndex has none
	Levels() []string
	// Label returns the index values for row i, one per level
	Label(i int) []int64
}

// RangeIndex is the flat index [0, N)
type RangeIndex struct {
	N int
}

func (r RangeIndex) Len() int            { return r.N }
func (r RangeIndex) Levels() []string    { return nil }
func (r RangeIndex) Label(i int) []int64 { return []int64{int64(i)} }

// MultiIndex is the (entry, subentry) index of a flattened ragged result
type MultiIndex struct {
	Entry    []int64
	Subentry []int64
}

func (m *MultiIndex) Len() int         { return len(m.Entry) }
func (m *MultiIndex) Levels() []string { return []string{"entry", "subentry"} }
func (m *MultiIndex) Label(i int) []int64 {
	return []int64{m.Entry[i], m.Subentry[i]}
}

// Column is one named output column
type Column struct {
	Name   string
	Values values.Buffer
}

// Frame is an ordered set of columns sharing one index
type Frame struct {
	index   Index
	columns []Column
	byName  map[string]int
}

// New creates an empty frame over index
func New(index Index) *Frame {
	return &Frame{
		index:  index,
		byName: make(map[string]int),
	}
}

// Add appends a column. Adding a name that already exists replaces that
// column's values and keeps its position.
func (f *Frame) Add(name string, vals values.Buffer) error {
	if vals.Len() != f.index.Len() {
		return errors.Newf(errors.ErrorTypeData, "column %q has %d rows, frame has %d", name, vals.Len(), f.index.Len()).
			WithDetail("column", name)
	}
	if i, ok := f.byName[name]; ok {
		f.columns[i].Values = vals
		return nil
	}
	f.byName[name] = len(f.columns)
	f.columns = append(f.columns, Column{Name: name, Values: vals})
	return nil
}

// Index returns the row index
func (f *Frame) Index() Index {
	return f.index
}

// Len returns the number of rows
func (f *Frame) Len() int {
	return f.index.Len()
}

// Columns returns the columns in insertion order
func (f *Frame) Columns() []Column {
	return f.columns
}

// Names returns the column names in order
func (f *Frame) Names() []string {
	out := make([]string, len(f.columns))
	for i, c := range f.columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by name
func (f *Frame) Column(name string) (Column, bool) {
	i, ok := f.byName[name]
	if !ok {
		return Column{}, false
	}
	return f.columns[i], true
}

// Row returns row i keyed by column name
func (f *Frame) Row(i int) map[string]any {
	out := make(map[string]any, len(f.columns))
	for _, c := range f.columns {
		out[c.Name] = c.Values.Value(i)
	}
	return out
}
