// Package interp describes how a field's raw data is interpreted and reduces
// an interpretation to the structural shape the flatten engine works with.
//
// Interpretations form a closed set of variants:
//
//	AsDtype   primitive or named-aggregate element type, optional fixed dims
//	AsTable   record wrapper around an AsDtype
//	AsObj     object wrapper around an AsTable
//	AsJagged  variable-length rows of another interpretation
//	AsGeneric anything else, kept opaque
//
// Classify strips wrappers in the fixed order object -> record -> buffer.
// Other nestings (a record of records, an object around a buffer) are not
// unwrapped and classify as Opaque.
package interp

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/rootflat/pkg/values"
)

// PaddingPrefix marks record subfields that only exist for alignment
const PaddingPrefix = " "

// Interpretation is one of AsDtype, AsTable, AsObj, AsJagged or AsGeneric
type Interpretation interface {
	isInterpretation()
	String() string
}

// DtypeField is one named member of an aggregate dtype
type DtypeField struct {
	Name string
	Kind values.Kind
}

// Dtype is either a primitive kind or an ordered list of named fields
type Dtype struct {
	Kind   values.Kind
	Fields []DtypeField
}

// IsRecord reports whether the dtype is a named aggregate
func (d Dtype) IsRecord() bool {
	return len(d.Fields) > 0
}

// Names returns the subfield names that are not padding
func (d Dtype) Names() []string {
	var out []string
	for _, f := range d.Fields {
		if !strings.HasPrefix(f.Name, PaddingPrefix) {
			out = append(out, f.Name)
		}
	}
	return out
}

func (d Dtype) String() string {
	if !d.IsRecord() {
		return d.Kind.String()
	}
	parts := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		parts[i] = fmt.Sprintf("%q:%s", f.Name, f.Kind)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// AsDtype interprets data as a typed buffer with optional fixed trailing dims
type AsDtype struct {
	Dtype Dtype
	Dims  []int
}

// AsTable wraps a record interpretation
type AsTable struct {
	Content Interpretation
}

// AsObj wraps an object interpretation
type AsObj struct {
	Content Interpretation
}

// AsJagged interprets data as variable-length rows of Content
type AsJagged struct {
	Content Interpretation
}

// AsGeneric is an interpretation the flatten engine does not look into
type AsGeneric struct {
	Name string
}

func (AsDtype) isInterpretation()   {}
func (AsTable) isInterpretation()   {}
func (AsObj) isInterpretation()     {}
func (AsJagged) isInterpretation()  {}
func (AsGeneric) isInterpretation() {}

func (i AsDtype) String() string {
	if len(i.Dims) == 0 {
		return "asdtype(" + i.Dtype.String() + ")"
	}
	return fmt.Sprintf("asdtype(%s, %v)", i.Dtype, i.Dims)
}
func (i AsTable) String() string   { return "astable(" + i.Content.String() + ")" }
func (i AsObj) String() string     { return "asobj(" + i.Content.String() + ")" }
func (i AsJagged) String() string  { return "asjagged(" + i.Content.String() + ")" }
func (i AsGeneric) String() string { return "asgeneric(" + i.Name + ")" }

// Primitive is shorthand for AsDtype over a primitive kind
func Primitive(k values.Kind, dims ...int) AsDtype {
	return AsDtype{Dtype: Dtype{Kind: k}, Dims: dims}
}

// Record is shorthand for AsDtype over a named aggregate
func Record(fields []DtypeField, dims ...int) AsDtype {
	return AsDtype{Dtype: Dtype{Fields: fields}, Dims: dims}
}

// Jagged is shorthand for AsJagged
func Jagged(content Interpretation) AsJagged {
	return AsJagged{Content: content}
}
