// Package flatten turns a list of resolved fields into one frame.
//
// Fields without ragged structure produce a frame indexed [0, N): scalars
// become one column, records one column per subfield, fixed-size arrays one
// column per element and anything unrecognized one column of per-row values.
//
// When Options.Flatten is set and at least one field is ragged, every ragged
// field must share the same row offsets. Their contents are emitted as-is and
// every other field is broadcast (repeated once per ragged element) so that
// the frame is indexed by (entry, subentry).
package flatten

import (
	"slices"

	"go.uber.org/zap"

	"github.com/ajitpratap0/rootflat/pkg/errors"
	"github.com/ajitpratap0/rootflat/pkg/frame"
	"github.com/ajitpratap0/rootflat/pkg/interp"
	"github.com/ajitpratap0/rootflat/pkg/jagged"
	"github.com/ajitpratap0/rootflat/pkg/logger"
	"github.com/ajitpratap0/rootflat/pkg/metrics"
	"github.com/ajitpratap0/rootflat/pkg/values"
)

// Future produces a field's value on demand
type Future func() (values.Array, error)

// Field is one named input to Flatten. Exactly one of Value and Future is
// expected; a Future is called once, before classification.
type Field struct {
	Name           string
	Interpretation interp.Interpretation
	Value          values.Array
	Future         Future
}

// Options controls a Flatten call
type Options struct {
	// EntryStart and EntryStop number the entries of the ragged index. Both
	// zero means [0, rows).
	EntryStart int64
	EntryStop  int64
	// Flatten expands ragged fields into one row per element
	Flatten bool
	// Namer builds column names; nil means DefaultNamer
	Namer Namer
	// Logger receives debug output; nil means logger.Get()
	Logger *zap.Logger
}

// DefaultOptions flattens ragged fields with the default namer
func DefaultOptions() Options {
	return Options{Flatten: true, Namer: DefaultNamer}
}

const (
	pathFlat   = "flat"
	pathRagged = "ragged"
)

type resolved struct {
	name  string
	shape interp.Shape
	value values.Array
}

// Flatten builds a frame from fields. Any error aborts the whole call.
func Flatten(fields []Field, opts Options) (*frame.Frame, error) {
	timer := metrics.NewTimer("flatten")
	if opts.Namer == nil {
		opts.Namer = DefaultNamer
	}
	log := opts.Logger
	if log == nil {
		log = logger.Get()
	}

	in := make([]resolved, len(fields))
	ragged := false
	for i, f := range fields {
		v, err := resolve(f)
		if err != nil {
			metrics.ObserveFailure(string(errors.TypeOf(err)))
			return nil, err
		}
		shape := interp.Classify(f.Interpretation)
		if v, err = prepare(f.Name, shape, v); err != nil {
			metrics.ObserveFailure(string(errors.TypeOf(err)))
			return nil, err
		}
		in[i] = resolved{name: f.Name, shape: shape, value: v}
		if shape.Kind == interp.Ragged {
			ragged = true
		}
	}

	path := pathFlat
	var (
		out *frame.Frame
		err error
	)
	if opts.Flatten && ragged {
		path = pathRagged
		out, err = flattenRagged(in, opts)
	} else {
		out, err = flattenFlat(in, opts)
	}
	if err != nil {
		metrics.ObserveFailure(string(errors.TypeOf(err)))
		log.Debug("flatten failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	metrics.ObserveFlatten(path, timer.Stop(), out.Len(), len(out.Columns()))
	log.Debug("flattened fields",
		zap.String("path", path),
		zap.Int("fields", len(fields)),
		zap.Int("rows", out.Len()),
		zap.Int("columns", len(out.Columns())))
	return out, nil
}

func resolve(f Field) (values.Array, error) {
	if f.Value != nil {
		return f.Value, nil
	}
	if f.Future == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "field has neither a value nor a future").
			WithDetail("field", f.Name)
	}
	v, err := f.Future()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to resolve field").
			WithDetail("field", f.Name)
	}
	if v == nil {
		return nil, errors.New(errors.ErrorTypeData, "future returned no value").
			WithDetail("field", f.Name)
	}
	return v, nil
}

// prepare checks a resolved value against its shape and gives flat buffers
// the shape's dims. Ragged values have their offsets validated and their
// content prepared against the element shape.
func prepare(name string, shape interp.Shape, v values.Array) (values.Array, error) {
	if shape.Kind != interp.Ragged {
		return normalize(name, shape, v)
	}

	ja, ok := unwrapObject(v).(*jagged.Array)
	if !ok {
		return nil, mismatch(name, shape, v)
	}
	if err := ja.Offsets.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInvariant, "ragged field has malformed offsets").
			WithDetail("field", name)
	}
	content, err := normalize(name, *shape.Inner, ja.Content)
	if err != nil {
		return nil, err
	}
	if int64(content.Len()) != ja.Offsets.Total() {
		return nil, errors.Newf(errors.ErrorTypeInvariant, "ragged content has %d elements, offsets cover %d",
			content.Len(), ja.Offsets.Total()).
			WithDetail("field", name)
	}
	return jagged.New(ja.Offsets, content), nil
}

func flattenFlat(in []resolved, opts Options) (*frame.Frame, error) {
	n := 0
	if len(in) > 0 {
		n = in[0].value.Len()
	}
	out := frame.New(frame.RangeIndex{N: n})
	for _, r := range in {
		shape := r.shape
		if shape.Kind == interp.Ragged {
			// not flattening: each row becomes a list
			shape = interp.Shape{Kind: interp.Opaque}
		}
		if err := emit(out, r.name, shape, r.value, opts.Namer); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func flattenRagged(in []resolved, opts Options) (*frame.Frame, error) {
	var (
		offsets *jagged.Offsets
		first   string
	)
	shapes := make([]interp.Shape, len(in))
	arrays := make([]values.Array, len(in))
	broadcast := make([]bool, len(in))

	for i, r := range in {
		if r.shape.Kind != interp.Ragged {
			shapes[i] = r.shape
			arrays[i] = r.value
			broadcast[i] = true
			continue
		}

		ja := r.value.(*jagged.Array)
		if offsets == nil {
			offsets, first = ja.Offsets, r.name
		} else if !jagged.Compatible(offsets, ja.Offsets) {
			return nil, errors.Newf(errors.ErrorTypeIncompatible,
				"cannot flatten fields %q and %q with different ragged structure; "+
					"select fields with compatible structure, or flatten them separately and join the results",
				first, r.name).
				WithDetail("field_a", first).
				WithDetail("field_b", r.name)
		}

		shapes[i] = *r.shape.Inner
		arrays[i] = ja.Content
	}

	start, stop := opts.EntryStart, opts.EntryStop
	if start == 0 && stop == 0 {
		stop = int64(offsets.Rows())
	}
	ix, err := jagged.BuildIndex(offsets, start, stop)
	if err != nil {
		return nil, err
	}
	out := frame.New(&frame.MultiIndex{Entry: ix.Entry, Subentry: ix.Subentry})

	for i, r := range in {
		shape, arr := shapes[i], arrays[i]
		if broadcast[i] {
			if shape.Kind == interp.Opaque {
				b, err := jagged.BroadcastObjects(arr, offsets)
				if err != nil {
					return nil, wrapField(err, r.name)
				}
				if err := out.Add(opts.Namer(r.name, "", nil), b.Data); err != nil {
					return nil, err
				}
				continue
			}
			var err error
			if arr, err = jagged.Broadcast(arr, offsets); err != nil {
				return nil, wrapField(err, r.name)
			}
		}
		if err := emit(out, r.name, shape, arr, opts.Namer); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// emit adds the columns of one prepared field to out
func emit(out *frame.Frame, name string, shape interp.Shape, arr values.Array, namer Namer) error {
	if shape.Kind == interp.Opaque {
		return out.Add(namer(name, "", nil), values.Objects(values.Materialize(arr)))
	}

	norm := unwrapObject(arr)
	if _, ok := norm.(*values.Table); shape.IsRecord() != ok {
		return mismatch(name, shape, arr)
	}

	for _, index := range values.Indices(shape.Dims) {
		off := values.Ravel(index, shape.Dims)
		if len(shape.Dims) == 0 {
			index = nil
		}
		if !shape.IsRecord() {
			if err := out.Add(namer(name, "", index), norm.(*values.Numeric).Element(off)); err != nil {
				return err
			}
			continue
		}
		tbl := norm.(*values.Table)
		for _, sub := range shape.Names() {
			col, _ := tbl.Field(sub)
			if err := out.Add(namer(name, sub, index), col.Element(off)); err != nil {
				return err
			}
		}
	}
	return nil
}

// normalize strips an object wrapper and checks that the value's structure
// agrees with the classified shape. Flat buffers are given the shape's dims.
func normalize(name string, shape interp.Shape, arr values.Array) (values.Array, error) {
	arr = unwrapObject(arr)
	switch shape.Kind {
	case interp.Scalar, interp.FixedArray:
		n, ok := arr.(*values.Numeric)
		if !ok {
			return nil, mismatch(name, shape, arr)
		}
		return reshape(name, shape, n)
	case interp.RecordShape, interp.RecordArray:
		t, ok := arr.(*values.Table)
		if !ok {
			return nil, mismatch(name, shape, arr)
		}
		fields := make([]*values.Numeric, 0, len(shape.Names()))
		for _, sub := range shape.Names() {
			col, ok := t.Field(sub)
			if !ok {
				return nil, errors.Newf(errors.ErrorTypeData, "record value has no subfield %q", sub).
					WithDetail("field", name)
			}
			col, err := reshape(name, shape, col)
			if err != nil {
				return nil, err
			}
			fields = append(fields, col)
		}
		return values.NewTable(shape.Names(), fields)
	}
	return arr, nil
}

func reshape(name string, shape interp.Shape, n *values.Numeric) (*values.Numeric, error) {
	if slices.Equal(n.Dims, shape.Dims) {
		return n, nil
	}
	stride := values.Product(shape.Dims)
	if len(n.Dims) == 0 && stride > 0 && n.Data.Len()%stride == 0 {
		return values.NewNumeric(n.Data, shape.Dims...), nil
	}
	return nil, errors.Newf(errors.ErrorTypeData, "value dims %v do not match interpretation dims %v", n.Dims, shape.Dims).
		WithDetail("field", name)
}

func unwrapObject(arr values.Array) values.Array {
	if o, ok := arr.(*values.ObjectArray); ok {
		return o.Content
	}
	return arr
}

func mismatch(name string, shape interp.Shape, arr values.Array) error {
	return errors.Newf(errors.ErrorTypeData, "%s field holds %s", shape.Kind, values.Describe(arr)).
		WithDetail("field", name)
}

func wrapField(err error, name string) error {
	return errors.Wrap(err, errors.TypeOf(err), "failed to broadcast field").
		WithDetail("field", name)
}
