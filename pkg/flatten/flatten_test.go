package flatten

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/rootflat/pkg/errors"
	"github.com/ajitpratap0/rootflat/pkg/frame"
	"github.com/ajitpratap0/rootflat/pkg/interp"
	"github.com/ajitpratap0/rootflat/pkg/jagged"
	"github.com/ajitpratap0/rootflat/pkg/values"
)

var hitFields = []interp.DtypeField{
	{Name: "x", Kind: values.KindFloat64},
	{Name: " gap", Kind: values.KindInt8},
	{Name: "y", Kind: values.KindFloat64},
}

func testOptions(t *testing.T) Options {
	opts := DefaultOptions()
	opts.Logger = zaptest.NewLogger(t)
	return opts
}

func hitTable(t *testing.T, x, y []float64, dims ...int) *values.Table {
	t.Helper()
	tbl, err := values.NewTable([]string{"x", " gap", "y"}, []*values.Numeric{
		values.NewNumeric(values.Of(x), dims...),
		values.NewNumeric(values.Of(make([]int8, len(x))), dims...),
		values.NewNumeric(values.Of(y), dims...),
	})
	require.NoError(t, err)
	return tbl
}

func column[T any](t *testing.T, f *frame.Frame, name string) []T {
	t.Helper()
	c, ok := f.Column(name)
	require.True(t, ok, "missing column %q in %v", name, f.Names())
	typed, ok := c.Values.(*values.Typed[T])
	require.True(t, ok, "column %q is %T", name, c.Values)
	return typed.Data()
}

func TestFlattenNonRagged(t *testing.T) {
	fields := []Field{
		{Name: "run", Interpretation: interp.Primitive(values.KindInt32), Value: values.NewNumeric(values.Of([]int32{1, 1}))},
		{Name: "cov", Interpretation: interp.Primitive(values.KindFloat32, 2, 2),
			Value: values.NewNumeric(values.Of([]float32{0, 1, 2, 3, 10, 11, 12, 13}), 2, 2)},
		{Name: "hit", Interpretation: interp.AsObj{Content: interp.AsTable{Content: interp.Record(hitFields)}},
			Value: &values.ObjectArray{Content: hitTable(t, []float64{1, 2}, []float64{3, 4})}},
		{Name: "vtx", Interpretation: interp.Record(hitFields, 2),
			Value: hitTable(t, []float64{1, 2, 3, 4}, []float64{5, 6, 7, 8}, 2)},
		{Name: "obj", Interpretation: interp.AsGeneric{Name: "TObjString"},
			Value: &values.Generic{Rows: []any{"a", "b"}}},
	}

	f, err := Flatten(fields, testOptions(t))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"run",
		"cov[0][0]", "cov[0][1]", "cov[1][0]", "cov[1][1]",
		"hit.x", "hit.y",
		"vtx.x[0]", "vtx.y[0]", "vtx.x[1]", "vtx.y[1]",
		"obj",
	}, f.Names())

	// column count matches the per-shape rule
	want := 0
	for _, fld := range fields {
		want += interp.Classify(fld.Interpretation).Columns()
	}
	assert.Len(t, f.Columns(), want)

	assert.Equal(t, frame.RangeIndex{N: 2}, f.Index())
	assert.Equal(t, []float32{1, 11}, column[float32](t, f, "cov[0][1]"))
	assert.Equal(t, []float64{3, 4}, column[float64](t, f, "hit.y"))
	assert.Equal(t, []float64{2, 4}, column[float64](t, f, "vtx.x[1]"))
	assert.Equal(t, []float64{6, 8}, column[float64](t, f, "vtx.y[1]"))
	assert.Equal(t, []any{"a", "b"}, column[any](t, f, "obj"))
}

func TestFlattenReshapesFlatBuffers(t *testing.T) {
	m := Field{Name: "m", Interpretation: interp.Primitive(values.KindInt64, 3),
		Value: values.NewNumeric(values.Of([]int64{1, 2, 3, 4, 5, 6}))}
	run := Field{Name: "run", Interpretation: interp.Primitive(values.KindInt32),
		Value: values.NewNumeric(values.Of([]int32{7, 8}))}

	tests := []struct {
		name   string
		fields []Field
		want   []string
	}{
		{"alone", []Field{m}, []string{"m[0]", "m[1]", "m[2]"}},
		{"first", []Field{m, run}, []string{"m[0]", "m[1]", "m[2]", "run"}},
		{"second", []Field{run, m}, []string{"run", "m[0]", "m[1]", "m[2]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Flatten(tt.fields, testOptions(t))
			require.NoError(t, err)
			assert.Equal(t, 2, f.Len())
			assert.Equal(t, tt.want, f.Names())
			assert.Equal(t, []int64{3, 6}, column[int64](t, f, "m[2]"))
		})
	}
}

func TestFlattenReshapesRaggedContent(t *testing.T) {
	fields := []Field{{
		Name:           "p2",
		Interpretation: interp.Jagged(interp.Primitive(values.KindFloat64, 2)),
		Value: jagged.FromCounts([]int64{1, 2},
			values.NewNumeric(values.Of([]float64{1, 2, 3, 4, 5, 6}))),
	}}
	f, err := Flatten(fields, testOptions(t))
	require.NoError(t, err)
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, []string{"p2[0]", "p2[1]"}, f.Names())
	assert.Equal(t, []float64{1, 3, 5}, column[float64](t, f, "p2[0]"))
}

func TestFlattenDimsMismatch(t *testing.T) {
	fields := []Field{
		{Name: "m", Interpretation: interp.Primitive(values.KindInt64, 4),
			Value: values.NewNumeric(values.Of([]int64{1, 2, 3, 4, 5, 6}), 3)},
	}
	_, err := Flatten(fields, testOptions(t))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestFlattenUniformRagged(t *testing.T) {
	const rows, length = 4, 3
	counts := make([]int64, rows)
	content := make([]float32, 0, rows*length)
	for i := range counts {
		counts[i] = length
		for k := 0; k < length; k++ {
			content = append(content, float32(10*i+k))
		}
	}

	fields := []Field{{
		Name:           "pt",
		Interpretation: interp.Jagged(interp.Primitive(values.KindFloat32)),
		Value:          jagged.FromCounts(counts, values.NewNumeric(values.Of(content))),
	}}

	f, err := Flatten(fields, testOptions(t))
	require.NoError(t, err)
	require.Equal(t, rows*length, f.Len())

	ix := f.Index().(*frame.MultiIndex)
	for i := 0; i < f.Len(); i++ {
		assert.Equal(t, int64(i/length), ix.Entry[i])
		assert.Equal(t, int64(i%length), ix.Subentry[i])
	}
	assert.Equal(t, content, column[float32](t, f, "pt"))
}

func TestFlattenRaggedBroadcast(t *testing.T) {
	counts := []int64{2, 0, 3}
	fields := []Field{
		{Name: "event", Interpretation: interp.Primitive(values.KindInt64),
			Value: values.NewNumeric(values.Of([]int64{100, 101, 102}))},
		{Name: "mu_pt", Interpretation: interp.Jagged(interp.Primitive(values.KindFloat32)),
			Value: jagged.FromCounts(counts, values.NewNumeric(values.Of([]float32{1, 2, 3, 4, 5})))},
		{Name: "beam", Interpretation: interp.Primitive(values.KindFloat64, 2),
			Value: values.NewNumeric(values.Of([]float64{0.1, 0.2, 1.1, 1.2, 2.1, 2.2}), 2)},
		{Name: "pv", Interpretation: interp.AsTable{Content: interp.Record(hitFields)},
			Value: hitTable(t, []float64{7, 8, 9}, []float64{-7, -8, -9})},
		{Name: "mu_hit", Interpretation: interp.Jagged(interp.AsObj{Content: interp.AsTable{Content: interp.Record(hitFields)}}),
			Value: jagged.FromCounts(counts, &values.ObjectArray{
				Content: hitTable(t, []float64{1, 2, 3, 4, 5}, []float64{6, 7, 8, 9, 10}),
			})},
		{Name: "label", Interpretation: interp.AsGeneric{Name: "TString"},
			Value: &values.Generic{Rows: []any{"a", "b", "c"}}},
	}

	opts := testOptions(t)
	opts.EntryStart, opts.EntryStop = 10, 13
	f, err := Flatten(fields, opts)
	require.NoError(t, err)

	require.Equal(t, 5, f.Len())
	ix := f.Index().(*frame.MultiIndex)
	assert.Equal(t, []int64{10, 10, 12, 12, 12}, ix.Entry)
	assert.Equal(t, []int64{0, 1, 0, 1, 2}, ix.Subentry)

	assert.Equal(t, []string{
		"event", "mu_pt", "beam[0]", "beam[1]", "pv.x", "pv.y", "mu_hit.x", "mu_hit.y", "label",
	}, f.Names())

	assert.Equal(t, []int64{100, 100, 102, 102, 102}, column[int64](t, f, "event"))
	assert.Equal(t, []float32{1, 2, 3, 4, 5}, column[float32](t, f, "mu_pt"))
	assert.Equal(t, []float64{0.2, 0.2, 2.2, 2.2, 2.2}, column[float64](t, f, "beam[1]"))
	assert.Equal(t, []float64{-7, -7, -9, -9, -9}, column[float64](t, f, "pv.y"))
	assert.Equal(t, []float64{6, 7, 8, 9, 10}, column[float64](t, f, "mu_hit.y"))
	assert.Equal(t, []any{"a", "a", "c", "c", "c"}, column[any](t, f, "label"))
}

func TestFlattenRaggedFixedArrayContent(t *testing.T) {
	fields := []Field{{
		Name:           "p4",
		Interpretation: interp.Jagged(interp.Primitive(values.KindFloat64, 2)),
		Value: jagged.FromCounts([]int64{1, 2},
			values.NewNumeric(values.Of([]float64{1, 2, 3, 4, 5, 6}), 2)),
	}}
	f, err := Flatten(fields, testOptions(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"p4[0]", "p4[1]"}, f.Names())
	assert.Equal(t, []float64{2, 4, 6}, column[float64](t, f, "p4[1]"))
}

func TestFlattenIncompatibleRagged(t *testing.T) {
	fields := []Field{
		{Name: "a", Interpretation: interp.Jagged(interp.Primitive(values.KindInt32)),
			Value: jagged.FromCounts([]int64{2, 3}, values.NewNumeric(values.Of(make([]int32, 5))))},
		{Name: "b", Interpretation: interp.Jagged(interp.Primitive(values.KindInt32)),
			Value: jagged.FromCounts([]int64{3, 2}, values.NewNumeric(values.Of(make([]int32, 5))))},
	}

	f, err := Flatten(fields, testOptions(t))
	require.Error(t, err)
	assert.Nil(t, f)
	assert.True(t, errors.IsType(err, errors.ErrorTypeIncompatible))

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "a", e.Details["field_a"])
	assert.Equal(t, "b", e.Details["field_b"])
	assert.Contains(t, err.Error(), `"a" and "b"`)
}

func TestFlattenSharedOffsetsByValue(t *testing.T) {
	shared := jagged.OffsetsFromCounts([]int64{1, 2})
	fields := []Field{
		{Name: "a", Interpretation: interp.Jagged(interp.Primitive(values.KindInt32)),
			Value: jagged.New(shared, values.NewNumeric(values.Of([]int32{1, 2, 3})))},
		{Name: "b", Interpretation: interp.Jagged(interp.Primitive(values.KindInt32)),
			Value: jagged.FromCounts([]int64{1, 2}, values.NewNumeric(values.Of([]int32{4, 5, 6})))},
	}
	f, err := Flatten(fields, testOptions(t))
	require.NoError(t, err)
	assert.Equal(t, 3, f.Len())
}

func TestFlattenMalformedOffsets(t *testing.T) {
	fields := []Field{{
		Name:           "a",
		Interpretation: interp.Jagged(interp.Primitive(values.KindInt32)),
		Value: jagged.New(&jagged.Offsets{Starts: []int64{0, 3}, Stops: []int64{2, 5}},
			values.NewNumeric(values.Of(make([]int32, 5)))),
	}}
	_, err := Flatten(fields, testOptions(t))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvariant))
}

func TestFlattenEntryRangeMismatch(t *testing.T) {
	fields := []Field{{
		Name:           "a",
		Interpretation: interp.Jagged(interp.Primitive(values.KindInt32)),
		Value:          jagged.FromCounts([]int64{1, 1}, values.NewNumeric(values.Of([]int32{1, 2}))),
	}}
	opts := testOptions(t)
	opts.EntryStart, opts.EntryStop = 5, 8
	_, err := Flatten(fields, opts)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvariant))
}

func TestFlattenDisabledKeepsRows(t *testing.T) {
	fields := []Field{
		{Name: "n", Interpretation: interp.Primitive(values.KindInt32),
			Value: values.NewNumeric(values.Of([]int32{2, 1}))},
		{Name: "pt", Interpretation: interp.Jagged(interp.Primitive(values.KindFloat32)),
			Value: jagged.FromCounts([]int64{2, 1}, values.NewNumeric(values.Of([]float32{1, 2, 3})))},
	}
	opts := testOptions(t)
	opts.Flatten = false

	f, err := Flatten(fields, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []any{[]any{float32(1), float32(2)}, []any{float32(3)}}, column[any](t, f, "pt"))
}

func TestFlattenDisabledMalformedRagged(t *testing.T) {
	tests := []struct {
		name   string
		counts []int64
	}{
		{"content too short", []int64{2, 5}},
		{"negative count", []int64{-1, 4}},
		{"no rows", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := []Field{{
				Name:           "pt",
				Interpretation: interp.Jagged(interp.Primitive(values.KindFloat32)),
				Value:          jagged.FromCounts(tt.counts, values.NewNumeric(values.Of([]float32{1, 2, 3}))),
			}}
			opts := testOptions(t)
			opts.Flatten = false

			var (
				f   *frame.Frame
				err error
			)
			require.NotPanics(t, func() { f, err = Flatten(fields, opts) })
			require.Error(t, err)
			assert.Nil(t, f)
			assert.True(t, errors.IsType(err, errors.ErrorTypeInvariant))
		})
	}
}

func TestFlattenFutureResolvedOnce(t *testing.T) {
	calls := 0
	fields := []Field{{
		Name:           "x",
		Interpretation: interp.Primitive(values.KindUint8),
		Future: func() (values.Array, error) {
			calls++
			return values.NewNumeric(values.Of([]uint8{1, 2, 3})), nil
		},
	}}
	f, err := Flatten(fields, testOptions(t))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, f.Len())
}

func TestFlattenFutureError(t *testing.T) {
	fields := []Field{{
		Name:           "x",
		Interpretation: interp.Primitive(values.KindUint8),
		Future:         func() (values.Array, error) { return nil, fmt.Errorf("basket unreadable") },
	}}
	_, err := Flatten(fields, testOptions(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "basket unreadable")

	_, err = Flatten([]Field{{Name: "y", Interpretation: interp.Primitive(values.KindUint8)}}, testOptions(t))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestFlattenCustomNamer(t *testing.T) {
	opts := testOptions(t)
	opts.Namer = func(field, subfield string, index []int) string {
		return fmt.Sprintf("%s/%s/%v", field, subfield, index)
	}
	fields := []Field{{
		Name:           "v",
		Interpretation: interp.Record(hitFields, 1),
		Value:          hitTable(t, []float64{1}, []float64{2}, 1),
	}}
	f, err := Flatten(fields, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"v/x/[0]", "v/y/[0]"}, f.Names())
}

func TestFlattenEmpty(t *testing.T) {
	f, err := Flatten(nil, testOptions(t))
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len())
	assert.Empty(t, f.Columns())
}

func TestDefaultNamerEmptySubfield(t *testing.T) {
	assert.Equal(t, "hit", DefaultNamer("hit", "", nil))
	assert.Equal(t, "hit[1]", DefaultNamer("hit", "", []int{1}))
	assert.Equal(t, "hit.x[1]", DefaultNamer("hit", "x", []int{1}))
}
