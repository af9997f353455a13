// Package values provides the in-memory representation of resolved field
// data: flat typed buffers and the per-row array views built on top of them.
package values

import "fmt"

// Kind identifies the element type stored in a Buffer
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	// KindObject holds arbitrary Go values (opaque rows)
	KindObject
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindBool:    "bool",
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindUint8:   "uint8",
	KindUint16:  "uint16",
	KindUint32:  "uint32",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindObject:  "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ParseKind maps a kind name such as "float64" back to its Kind
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name && Kind(k) != KindInvalid {
			return Kind(k), true
		}
	}
	return KindInvalid, false
}

// IsPrimitive reports whether k is a fixed-width primitive kind
func (k Kind) IsPrimitive() bool {
	return k > KindInvalid && k < KindObject
}

// Buffer is a flat, homogeneous sequence of elements
type Buffer interface {
	Kind() Kind
	Len() int
	Value(i int) any
	// Gather returns a new buffer holding the elements at idx, in order
	Gather(idx []int) Buffer
}

// Primitive is the set of element types a typed buffer may hold
type Primitive interface {
	bool | int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64
}

// Typed is a Buffer backed by a Go slice
type Typed[T any] struct {
	kind Kind
	data []T
}

// Of wraps data in a typed buffer. The slice is not copied.
func Of[T Primitive](data []T) *Typed[T] {
	return &Typed[T]{kind: kindOf(data), data: data}
}

// Objects wraps arbitrary values in an object buffer. The slice is not copied.
func Objects(data []any) *Typed[any] {
	return &Typed[any]{kind: KindObject, data: data}
}

func kindOf[T Primitive](data []T) Kind {
	switch any(data).(type) {
	case []bool:
		return KindBool
	case []int8:
		return KindInt8
	case []int16:
		return KindInt16
	case []int32:
		return KindInt32
	case []int64:
		return KindInt64
	case []uint8:
		return KindUint8
	case []uint16:
		return KindUint16
	case []uint32:
		return KindUint32
	case []uint64:
		return KindUint64
	case []float32:
		return KindFloat32
	case []float64:
		return KindFloat64
	}
	return KindInvalid
}

func (b *Typed[T]) Kind() Kind      { return b.kind }
func (b *Typed[T]) Len() int        { return len(b.data) }
func (b *Typed[T]) Value(i int) any { return b.data[i] }

// Data returns the backing slice
func (b *Typed[T]) Data() []T { return b.data }

func (b *Typed[T]) Gather(idx []int) Buffer {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = b.data[j]
	}
	return &Typed[T]{kind: b.kind, data: out}
}

// ToSlice copies a buffer's elements into a []any
func ToSlice(b Buffer) []any {
	out := make([]any, b.Len())
	for i := range out {
		out[i] = b.Value(i)
	}
	return out
}
