package jagged

import (
	"fmt"

	"github.com/ajitpratap0/rootflat/pkg/errors"
	"github.com/ajitpratap0/rootflat/pkg/values"
)

// Array is a ragged field value: row i is Content[Starts[i]:Stops[i]]
type Array struct {
	Offsets *Offsets
	Content values.Array
}

// New creates a ragged array over content
func New(offsets *Offsets, content values.Array) *Array {
	return &Array{Offsets: offsets, Content: content}
}

// FromCounts creates a ragged array whose row lengths are counts
func FromCounts(counts []int64, content values.Array) *Array {
	return &Array{Offsets: OffsetsFromCounts(counts), Content: content}
}

func (a *Array) Len() int {
	return a.Offsets.Rows()
}

// Row returns the elements of row i as a []any
func (a *Array) Row(i int) any {
	out := make([]any, 0, a.Offsets.Count(i))
	for k := a.Offsets.Starts[i]; k < a.Offsets.Stops[i]; k++ {
		out = append(out, a.Content.Row(int(k)))
	}
	return out
}

// Broadcast repeats each row of a once per element of the matching ragged
// row, so that a per-entry value lines up with flattened ragged content.
// The result has offsets.Total() rows and the same structure as a.
func Broadcast(a values.Array, offsets *Offsets) (values.Array, error) {
	if a.Len() != offsets.Rows() {
		return nil, errors.Newf(errors.ErrorTypeInvariant, "cannot broadcast %d rows against %d ragged rows",
			a.Len(), offsets.Rows())
	}
	parents := offsets.Parents()

	switch v := a.(type) {
	case *values.Numeric:
		return v.Take(parents), nil
	case *values.Table:
		return v.Take(parents), nil
	case *values.ObjectArray:
		inner, err := Broadcast(v.Content, offsets)
		if err != nil {
			return nil, err
		}
		return &values.ObjectArray{Content: inner}, nil
	default:
		return BroadcastObjects(a, offsets)
	}
}

// BroadcastObjects materializes a as a generic per-row list, stores the
// rows in an object buffer and broadcasts that
func BroadcastObjects(a values.Array, offsets *Offsets) (*values.Numeric, error) {
	if a.Len() != offsets.Rows() {
		return nil, errors.Newf(errors.ErrorTypeInvariant, "cannot broadcast %d rows against %d ragged rows",
			a.Len(), offsets.Rows())
	}
	rows := values.Objects(values.Materialize(a))
	return values.NewNumeric(rows.Gather(offsets.Parents())), nil
}

// Index is the two-level row index of a flattened ragged result
type Index struct {
	Entry    []int64
	Subentry []int64
}

// Len returns the number of flattened rows
func (ix *Index) Len() int {
	return len(ix.Entry)
}

// BuildIndex pairs every flattened position with its entry number, counted
// from entryStart, and its position within that entry.
func BuildIndex(offsets *Offsets, entryStart, entryStop int64) (*Index, error) {
	if entryStop-entryStart != int64(offsets.Rows()) {
		return nil, errors.Newf(errors.ErrorTypeInvariant, "entry range [%d, %d) does not match %d ragged rows",
			entryStart, entryStop, offsets.Rows()).
			WithDetail("entry_start", entryStart).
			WithDetail("entry_stop", entryStop)
	}
	parents := offsets.Parents()
	entry := make([]int64, len(parents))
	for i, p := range parents {
		entry[i] = entryStart + int64(p)
	}
	return &Index{Entry: entry, Subentry: offsets.Local()}, nil
}

func (ix *Index) String() string {
	return fmt.Sprintf("Index(entry, subentry) x %d", ix.Len())
}
