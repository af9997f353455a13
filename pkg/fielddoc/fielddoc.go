// Package fielddoc reads flatten input fields from a JSON document.
//
// A document lists fields with an interpretation descriptor and row-major
// values:
//
//	{"fields": [
//	  {"name": "nMuon", "interpretation": {"kind": "dtype", "dtype": "int32"}, "values": [2, 1]},
//	  {"name": "Muon_pt",
//	   "interpretation": {"kind": "jagged", "content": {"kind": "dtype", "dtype": "float32"}},
//	   "counts": [2, 1], "values": [10.5, 20, 31]},
//	  {"name": "hit",
//	   "interpretation": {"kind": "table", "content": {"kind": "dtype",
//	     "fields": [{"name": "x", "dtype": "float64"}, {"name": "y", "dtype": "float64"}]}},
//	   "values": {"x": [1, 2], "y": [3, 4]}}
//	]}
//
// Primitive values are flat arrays holding product(dims) elements per row.
// Record values are objects keyed by subfield. Jagged fields carry per-row
// counts and their content values are concatenated across rows. Generic and
// nested-jagged content is kept as arbitrary JSON values.
package fielddoc

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/ajitpratap0/rootflat/pkg/errors"
	"github.com/ajitpratap0/rootflat/pkg/flatten"
	"github.com/ajitpratap0/rootflat/pkg/interp"
	"github.com/ajitpratap0/rootflat/pkg/jagged"
	"github.com/ajitpratap0/rootflat/pkg/values"
)

// Interpretation kinds
const (
	KindDtype   = "dtype"
	KindTable   = "table"
	KindObject  = "object"
	KindJagged  = "jagged"
	KindGeneric = "generic"
)

// Document is the top-level JSON object
type Document struct {
	Fields []FieldDoc `json:"fields"`
}

// FieldDoc is one named field
type FieldDoc struct {
	Name           string          `json:"name"`
	Interpretation InterpDoc       `json:"interpretation"`
	Counts         []int64         `json:"counts,omitempty"`
	Values         json.RawMessage `json:"values"`
	// Lazy defers value decoding until the field is resolved
	Lazy bool `json:"lazy,omitempty"`
}

// InterpDoc describes an interpretation
type InterpDoc struct {
	Kind    string        `json:"kind"`
	Dtype   string        `json:"dtype,omitempty"`
	Fields  []SubfieldDoc `json:"fields,omitempty"`
	Dims    []int         `json:"dims,omitempty"`
	Content *InterpDoc    `json:"content,omitempty"`
	Name    string        `json:"name,omitempty"`
}

// SubfieldDoc is one member of a record dtype
type SubfieldDoc struct {
	Name  string `json:"name"`
	Dtype string `json:"dtype"`
}

// Read decodes a document from r into flatten fields
func Read(r io.Reader) ([]flatten.Field, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeEncoding, "failed to decode field document")
	}
	return doc.Build()
}

// Parse decodes a document held in memory
func Parse(data []byte) ([]flatten.Field, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeEncoding, "failed to decode field document")
	}
	return doc.Build()
}

// Build converts every field document. Lazy fields get a Future.
func (d Document) Build() ([]flatten.Field, error) {
	out := make([]flatten.Field, 0, len(d.Fields))
	for _, fd := range d.Fields {
		f, err := fd.Build()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Build converts one field document
func (fd FieldDoc) Build() (flatten.Field, error) {
	in, err := fd.Interpretation.Build()
	if err != nil {
		return flatten.Field{}, errors.Wrap(err, errors.TypeOf(err), "bad interpretation").WithDetail("field", fd.Name)
	}
	f := flatten.Field{Name: fd.Name, Interpretation: in}

	if fd.Lazy {
		f.Future = func() (values.Array, error) { return fd.decode(in) }
		return f, nil
	}
	f.Value, err = fd.decode(in)
	if err != nil {
		return flatten.Field{}, err
	}
	return f, nil
}

func (fd FieldDoc) decode(in interp.Interpretation) (values.Array, error) {
	arr, err := decodeValues(in, fd.Counts, fd.Values)
	if err != nil {
		return nil, errors.Wrap(err, errors.TypeOf(err), "bad values").WithDetail("field", fd.Name)
	}
	return arr, nil
}

// Build converts the descriptor to an interpretation
func (d InterpDoc) Build() (interp.Interpretation, error) {
	switch d.Kind {
	case KindDtype:
		if len(d.Fields) > 0 {
			fields := make([]interp.DtypeField, len(d.Fields))
			for i, sf := range d.Fields {
				k, err := parseKind(sf.Dtype)
				if err != nil {
					return nil, err
				}
				fields[i] = interp.DtypeField{Name: sf.Name, Kind: k}
			}
			return interp.Record(fields, d.Dims...), nil
		}
		k, err := parseKind(d.Dtype)
		if err != nil {
			return nil, err
		}
		return interp.Primitive(k, d.Dims...), nil
	case KindTable, KindObject, KindJagged:
		if d.Content == nil {
			return nil, errors.Newf(errors.ErrorTypeValidation, "%s interpretation needs content", d.Kind)
		}
		content, err := d.Content.Build()
		if err != nil {
			return nil, err
		}
		switch d.Kind {
		case KindTable:
			return interp.AsTable{Content: content}, nil
		case KindObject:
			return interp.AsObj{Content: content}, nil
		default:
			return interp.Jagged(content), nil
		}
	case KindGeneric:
		return interp.AsGeneric{Name: d.Name}, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "unknown interpretation kind %q", d.Kind)
	}
}

func parseKind(name string) (values.Kind, error) {
	k, ok := values.ParseKind(name)
	if !ok || !k.IsPrimitive() {
		return values.KindInvalid, errors.Newf(errors.ErrorTypeValidation, "unknown dtype %q", name)
	}
	return k, nil
}

func decodeValues(in interp.Interpretation, counts []int64, raw json.RawMessage) (values.Array, error) {
	switch i := in.(type) {
	case interp.AsJagged:
		if counts == nil {
			return nil, errors.New(errors.ErrorTypeValidation, "jagged field needs counts")
		}
		content, err := decodeValues(i.Content, nil, raw)
		if err != nil {
			return nil, err
		}
		return jagged.FromCounts(counts, content), nil
	case interp.AsObj:
		content, err := decodeValues(i.Content, nil, raw)
		if err != nil {
			return nil, err
		}
		return &values.ObjectArray{Content: content}, nil
	case interp.AsTable:
		return decodeValues(i.Content, nil, raw)
	case interp.AsDtype:
		if i.Dtype.IsRecord() {
			return decodeRecord(i, raw)
		}
		buf, err := decodeBuffer(i.Dtype.Kind, raw)
		if err != nil {
			return nil, err
		}
		return values.NewNumeric(buf, i.Dims...), nil
	default:
		var rows []any
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeEncoding, "generic values must be an array")
		}
		return &values.Generic{Rows: rows}, nil
	}
}

func decodeRecord(d interp.AsDtype, raw json.RawMessage) (values.Array, error) {
	var cols map[string]json.RawMessage
	if err := json.Unmarshal(raw, &cols); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeEncoding, "record values must be an object")
	}

	var names []string
	var fields []*values.Numeric
	for _, sf := range d.Dtype.Fields {
		col, ok := cols[sf.Name]
		if !ok {
			// padding members are usually absent
			continue
		}
		buf, err := decodeBuffer(sf.Kind, col)
		if err != nil {
			return nil, errors.Wrap(err, errors.TypeOf(err), "subfield "+sf.Name)
		}
		names = append(names, sf.Name)
		fields = append(fields, values.NewNumeric(buf, d.Dims...))
	}
	return values.NewTable(names, fields)
}

func decodeBuffer(k values.Kind, raw json.RawMessage) (values.Buffer, error) {
	switch k {
	case values.KindBool:
		return decodeTyped[bool](raw)
	case values.KindInt8:
		return decodeTyped[int8](raw)
	case values.KindInt16:
		return decodeTyped[int16](raw)
	case values.KindInt32:
		return decodeTyped[int32](raw)
	case values.KindInt64:
		return decodeTyped[int64](raw)
	case values.KindUint8:
		// []uint8 is a base64 string in JSON, so go through a wider type
		wide, err := decode[uint16](raw)
		if err != nil {
			return nil, err
		}
		out := make([]uint8, len(wide))
		for i, v := range wide {
			if v > 255 {
				return nil, errors.Newf(errors.ErrorTypeData, "value %d overflows uint8", v)
			}
			out[i] = uint8(v)
		}
		return values.Of(out), nil
	case values.KindUint16:
		return decodeTyped[uint16](raw)
	case values.KindUint32:
		return decodeTyped[uint32](raw)
	case values.KindUint64:
		return decodeTyped[uint64](raw)
	case values.KindFloat32:
		return decodeTyped[float32](raw)
	case values.KindFloat64:
		return decodeTyped[float64](raw)
	}
	return nil, errors.Newf(errors.ErrorTypeValidation, "unsupported dtype %s", k)
}

func decodeTyped[T values.Primitive](raw json.RawMessage) (values.Buffer, error) {
	data, err := decode[T](raw)
	if err != nil {
		return nil, err
	}
	return values.Of(data), nil
}

func decode[T any](raw json.RawMessage) ([]T, error) {
	out := []T{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeEncoding, "values do not match dtype")
	}
	return out, nil
}
