package values

import (
	"fmt"

	"github.com/ajitpratap0/rootflat/pkg/errors"
)

// Array is a resolved per-row field value
type Array interface {
	// Len returns the number of rows (entries)
	Len() int
	// Row realizes row i as a plain Go value
	Row(i int) any
}

// Numeric views a primitive buffer as rows with a fixed trailing shape.
// A Numeric without dims holds one element per row.
type Numeric struct {
	Data Buffer
	Dims []int
}

// NewNumeric creates a Numeric over data with the given trailing dims
func NewNumeric(data Buffer, dims ...int) *Numeric {
	return &Numeric{Data: data, Dims: dims}
}

// Stride returns the number of buffer elements per row
func (n *Numeric) Stride() int {
	return Product(n.Dims)
}

func (n *Numeric) Len() int {
	s := n.Stride()
	if s == 0 {
		return 0
	}
	return n.Data.Len() / s
}

func (n *Numeric) Row(i int) any {
	if len(n.Dims) == 0 {
		return n.Data.Value(i)
	}
	s := n.Stride()
	return nest(n.Data, i*s, n.Dims)
}

func nest(b Buffer, base int, dims []int) any {
	if len(dims) == 0 {
		return b.Value(base)
	}
	inner := Product(dims[1:])
	out := make([]any, dims[0])
	for k := range out {
		out[k] = nest(b, base+k*inner, dims[1:])
	}
	return out
}

// Element returns, for every row, the element at flat in-row offset off
func (n *Numeric) Element(off int) Buffer {
	s := n.Stride()
	if s == 1 {
		return n.Data
	}
	rows := n.Len()
	idx := make([]int, rows)
	for r := range idx {
		idx[r] = r*s + off
	}
	return n.Data.Gather(idx)
}

// Take gathers whole rows. Each row's fixed-shape block moves as a single
// compound element, so the result keeps the original dims.
func (n *Numeric) Take(rows []int) *Numeric {
	s := n.Stride()
	if s == 1 {
		return &Numeric{Data: n.Data.Gather(rows), Dims: n.Dims}
	}
	idx := make([]int, 0, len(rows)*s)
	for _, r := range rows {
		for k := 0; k < s; k++ {
			idx = append(idx, r*s+k)
		}
	}
	return &Numeric{Data: n.Data.Gather(idx), Dims: n.Dims}
}

// Table is a named-field aggregate of Numeric arrays that share a row count
type Table struct {
	Names  []string
	Fields []*Numeric
}

// NewTable builds a table, checking that every field has the same row count
func NewTable(names []string, fields []*Numeric) (*Table, error) {
	if len(names) != len(fields) {
		return nil, errors.Newf(errors.ErrorTypeValidation, "table has %d names but %d fields", len(names), len(fields))
	}
	for i := 1; i < len(fields); i++ {
		if fields[i].Len() != fields[0].Len() {
			return nil, errors.Newf(errors.ErrorTypeValidation, "table field %q has %d rows, expected %d",
				names[i], fields[i].Len(), fields[0].Len())
		}
	}
	return &Table{Names: names, Fields: fields}, nil
}

// Field returns the subfield with the given name
func (t *Table) Field(name string) (*Numeric, bool) {
	for i, n := range t.Names {
		if n == name {
			return t.Fields[i], true
		}
	}
	return nil, false
}

func (t *Table) Len() int {
	if len(t.Fields) == 0 {
		return 0
	}
	return t.Fields[0].Len()
}

func (t *Table) Row(i int) any {
	out := make(map[string]any, len(t.Names))
	for k, n := range t.Names {
		out[n] = t.Fields[k].Row(i)
	}
	return out
}

// Take gathers rows of every subfield independently
func (t *Table) Take(rows []int) *Table {
	fields := make([]*Numeric, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = f.Take(rows)
	}
	return &Table{Names: t.Names, Fields: fields}
}

// ObjectArray is an object wrapper around another array, such as a
// streamed class whose only member is a record
type ObjectArray struct {
	Content Array
}

func (o *ObjectArray) Len() int      { return o.Content.Len() }
func (o *ObjectArray) Row(i int) any { return o.Content.Row(i) }

// Generic is a per-row list of arbitrary values
type Generic struct {
	Rows []any
}

func (g *Generic) Len() int      { return len(g.Rows) }
func (g *Generic) Row(i int) any { return g.Rows[i] }

// Materialize realizes every row of a as a plain Go value, in row order
func Materialize(a Array) []any {
	if g, ok := a.(*Generic); ok {
		return g.Rows
	}
	out := make([]any, a.Len())
	for i := range out {
		out[i] = a.Row(i)
	}
	return out
}

// Product returns the product of dims; an empty shape has product 1
func Product(dims []int) int {
	p := 1
	for _, d := range dims {
		p *= d
	}
	return p
}

// Indices enumerates the Cartesian product range(d1) x ... x range(dk) in
// row-major order
func Indices(dims []int) [][]int {
	total := Product(dims)
	out := make([][]int, 0, total)
	if total == 0 {
		return out
	}
	cur := make([]int, len(dims))
	for n := 0; n < total; n++ {
		idx := make([]int, len(cur))
		copy(idx, cur)
		out = append(out, idx)
		for k := len(dims) - 1; k >= 0; k-- {
			cur[k]++
			if cur[k] < dims[k] {
				break
			}
			cur[k] = 0
		}
	}
	return out
}

// Ravel converts an index tuple into a row-major flat offset within dims
func Ravel(index, dims []int) int {
	off := 0
	for k, i := range index {
		off = off*dims[k] + i
	}
	return off
}

// Describe summarizes the array shape for log fields
func Describe(a Array) string {
	switch v := a.(type) {
	case *Numeric:
		return fmt.Sprintf("numeric[%s]%v x %d", v.Data.Kind(), v.Dims, v.Len())
	case *Table:
		return fmt.Sprintf("table%v x %d", v.Names, v.Len())
	case *ObjectArray:
		return "object(" + Describe(v.Content) + ")"
	case *Generic:
		return fmt.Sprintf("generic x %d", v.Len())
	case nil:
		return "nil"
	}
	return fmt.Sprintf("%T x %d", a, a.Len())
}
