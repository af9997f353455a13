package interp

import "github.com/ajitpratap0/rootflat/pkg/values"

// ShapeKind is the structural class of a field
type ShapeKind int

const (
	// Opaque fields are emitted as one column of generic per-row values
	Opaque ShapeKind = iota
	Scalar
	RecordShape
	FixedArray
	// RecordArray is a record whose every subfield has fixed trailing dims
	RecordArray
	Ragged
)

func (k ShapeKind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case RecordShape:
		return "record"
	case FixedArray:
		return "fixed_array"
	case RecordArray:
		return "record_array"
	case Ragged:
		return "ragged"
	default:
		return "opaque"
	}
}

// Shape is the result of classifying an interpretation
type Shape struct {
	Kind ShapeKind
	// Dtype and Dims are set for Scalar, Record, FixedArray and RecordArray
	Dtype Dtype
	Dims  []int
	// Inner is the element shape of a Ragged field. A ragged element that is
	// itself ragged classifies as Opaque.
	Inner *Shape
}

// Names returns the non-padding subfield names of a record shape
func (s Shape) Names() []string {
	return s.Dtype.Names()
}

// IsRecord reports whether the shape emits one column per subfield
func (s Shape) IsRecord() bool {
	return s.Kind == RecordShape || s.Kind == RecordArray
}

// Columns returns how many columns the shape emits when flattened
func (s Shape) Columns() int {
	switch s.Kind {
	case Scalar:
		return 1
	case RecordShape:
		return len(s.Names())
	case FixedArray:
		return values.Product(s.Dims)
	case RecordArray:
		return values.Product(s.Dims) * len(s.Names())
	case Ragged:
		return s.Inner.Columns()
	default:
		return 1
	}
}

// Unwrap strips an object wrapper around a record and a record wrapper
// around a buffer, in that order, once each.
func Unwrap(i Interpretation) Interpretation {
	if obj, ok := i.(AsObj); ok {
		if _, ok := obj.Content.(AsTable); ok {
			i = obj.Content
		}
	}
	if tbl, ok := i.(AsTable); ok {
		if _, ok := tbl.Content.(AsDtype); ok {
			i = tbl.Content
		}
	}
	return i
}

// Classify reduces an interpretation to its structural shape
func Classify(i Interpretation) Shape {
	if j, ok := i.(AsJagged); ok {
		inner := classifyFlat(Unwrap(j.Content))
		return Shape{Kind: Ragged, Inner: &inner}
	}
	return classifyFlat(Unwrap(i))
}

func classifyFlat(i Interpretation) Shape {
	d, ok := i.(AsDtype)
	if !ok {
		return Shape{Kind: Opaque}
	}
	switch {
	case d.Dtype.IsRecord():
		for _, f := range d.Dtype.Fields {
			if !f.Kind.IsPrimitive() {
				return Shape{Kind: Opaque}
			}
		}
		if len(d.Dims) == 0 {
			return Shape{Kind: RecordShape, Dtype: d.Dtype}
		}
		return Shape{Kind: RecordArray, Dtype: d.Dtype, Dims: d.Dims}
	case d.Dtype.Kind.IsPrimitive():
		if len(d.Dims) == 0 {
			return Shape{Kind: Scalar, Dtype: d.Dtype}
		}
		return Shape{Kind: FixedArray, Dtype: d.Dtype, Dims: d.Dims}
	default:
		return Shape{Kind: Opaque}
	}
}
