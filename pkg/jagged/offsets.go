// Package jagged implements variable-length per-row ("ragged") arrays: the
// shared starts/stops row boundaries, broadcasting of per-row values against
// them, and the two-level (entry, subentry) row index of a flattened result.
package jagged

import (
	"slices"

	"github.com/ajitpratap0/rootflat/pkg/errors"
)

// Offsets holds one [start, stop) pair per row into a flat content buffer
type Offsets struct {
	Starts []int64
	Stops  []int64
}

// OffsetsFromCounts builds contiguous, zero-based offsets from per-row lengths
func OffsetsFromCounts(counts []int64) *Offsets {
	o := &Offsets{
		Starts: make([]int64, len(counts)),
		Stops:  make([]int64, len(counts)),
	}
	var pos int64
	for i, c := range counts {
		o.Starts[i] = pos
		pos += c
		o.Stops[i] = pos
	}
	return o
}

// Rows returns the number of rows
func (o *Offsets) Rows() int {
	return len(o.Starts)
}

// Count returns the length of row i
func (o *Offsets) Count(i int) int64 {
	return o.Stops[i] - o.Starts[i]
}

// Counts returns all row lengths
func (o *Offsets) Counts() []int64 {
	out := make([]int64, len(o.Starts))
	for i := range out {
		out[i] = o.Count(i)
	}
	return out
}

// Total returns the flattened length. Only meaningful for validated offsets.
func (o *Offsets) Total() int64 {
	if len(o.Stops) == 0 {
		return 0
	}
	return o.Stops[len(o.Stops)-1]
}

// Validate checks that the offsets are zero-based and contiguous, which
// makes the content buffer equal to the concatenation of every row in order.
// At least one row is required.
func (o *Offsets) Validate() error {
	if len(o.Starts) != len(o.Stops) {
		return errors.Newf(errors.ErrorTypeInvariant, "offsets have %d starts but %d stops", len(o.Starts), len(o.Stops))
	}
	if len(o.Starts) == 0 {
		return errors.New(errors.ErrorTypeInvariant, "offsets have no rows")
	}
	if o.Starts[0] != 0 {
		return errors.Newf(errors.ErrorTypeInvariant, "offsets are not zero-based: starts[0] = %d", o.Starts[0]).
			WithDetail("row", 0)
	}
	for i := range o.Starts {
		if o.Starts[i] > o.Stops[i] {
			return errors.Newf(errors.ErrorTypeInvariant, "row %d has start %d after stop %d", i, o.Starts[i], o.Stops[i]).
				WithDetail("row", i)
		}
		if i+1 < len(o.Starts) && o.Stops[i] != o.Starts[i+1] {
			return errors.Newf(errors.ErrorTypeInvariant, "offsets are not contiguous: stops[%d] = %d, starts[%d] = %d",
				i, o.Stops[i], i+1, o.Starts[i+1]).
				WithDetail("row", i)
		}
	}
	return nil
}

// Compatible reports whether two offsets describe the same row structure:
// the same object, or element-wise equal starts and stops.
func Compatible(a, b *Offsets) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return slices.Equal(a.Starts, b.Starts) && slices.Equal(a.Stops, b.Stops)
}

// Parents returns, for every flattened position, the row it belongs to.
// Gathering a per-row buffer with Parents is a broadcast.
func (o *Offsets) Parents() []int {
	out := make([]int, 0, o.Total())
	for i := range o.Starts {
		for k := o.Starts[i]; k < o.Stops[i]; k++ {
			out = append(out, i)
		}
	}
	return out
}

// Local returns, for every flattened position, its zero-based position
// within its row
func (o *Offsets) Local() []int64 {
	out := make([]int64, 0, o.Total())
	for i := range o.Starts {
		for k := int64(0); k < o.Count(i); k++ {
			out = append(out, k)
		}
	}
	return out
}
