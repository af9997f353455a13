package frame

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/rootflat/pkg/errors"
	"github.com/ajitpratap0/rootflat/pkg/values"
)

// ToRecord converts the frame into an arrow record. Index levels come first
// as int64 columns, followed by the value columns in order. Object columns
// are stored as JSON strings. The caller must Release the record.
func (f *Frame) ToRecord(mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	levels := f.index.Levels()
	fields := make([]arrow.Field, 0, len(levels)+len(f.columns))
	cols := make([]arrow.Array, 0, len(levels)+len(f.columns))
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	for l, name := range levels {
		b := array.NewInt64Builder(mem)
		b.Reserve(f.Len())
		for i := 0; i < f.Len(); i++ {
			b.Append(f.index.Label(i)[l])
		}
		cols = append(cols, b.NewArray())
		b.Release()
		fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Int64})
	}

	for _, c := range f.columns {
		arr, err := buildArray(mem, c.Values)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to convert column").
				WithDetail("column", c.Name)
		}
		cols = append(cols, arr)
		fields = append(fields, arrow.Field{Name: c.Name, Type: arr.DataType()})
	}

	schema := arrow.NewSchema(fields, nil)
	return array.NewRecord(schema, cols, int64(f.Len())), nil
}

// WriteArrow writes the frame as a single-batch arrow IPC file
func (f *Frame) WriteArrow(w io.Writer, mem memory.Allocator) error {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	rec, err := f.ToRecord(mem)
	if err != nil {
		return err
	}
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create Arrow writer")
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write record batch")
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close Arrow writer")
	}
	return nil
}

func buildArray(mem memory.Allocator, buf values.Buffer) (arrow.Array, error) {
	switch v := buf.(type) {
	case *values.Typed[bool]:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		b.AppendValues(v.Data(), nil)
		return b.NewArray(), nil
	case *values.Typed[int8]:
		b := array.NewInt8Builder(mem)
		defer b.Release()
		b.AppendValues(v.Data(), nil)
		return b.NewArray(), nil
	case *values.Typed[int16]:
		b := array.NewInt16Builder(mem)
		defer b.Release()
		b.AppendValues(v.Data(), nil)
		return b.NewArray(), nil
	case *values.Typed[int32]:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		b.AppendValues(v.Data(), nil)
		return b.NewArray(), nil
	case *values.Typed[int64]:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		b.AppendValues(v.Data(), nil)
		return b.NewArray(), nil
	case *values.Typed[uint8]:
		b := array.NewUint8Builder(mem)
		defer b.Release()
		b.AppendValues(v.Data(), nil)
		return b.NewArray(), nil
	case *values.Typed[uint16]:
		b := array.NewUint16Builder(mem)
		defer b.Release()
		b.AppendValues(v.Data(), nil)
		return b.NewArray(), nil
	case *values.Typed[uint32]:
		b := array.NewUint32Builder(mem)
		defer b.Release()
		b.AppendValues(v.Data(), nil)
		return b.NewArray(), nil
	case *values.Typed[uint64]:
		b := array.NewUint64Builder(mem)
		defer b.Release()
		b.AppendValues(v.Data(), nil)
		return b.NewArray(), nil
	case *values.Typed[float32]:
		b := array.NewFloat32Builder(mem)
		defer b.Release()
		b.AppendValues(v.Data(), nil)
		return b.NewArray(), nil
	case *values.Typed[float64]:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		b.AppendValues(v.Data(), nil)
		return b.NewArray(), nil
	case *values.Typed[any]:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for _, item := range v.Data() {
			if item == nil {
				b.AppendNull()
				continue
			}
			data, err := gojson.Marshal(item)
			if err != nil {
				return nil, err
			}
			b.Append(string(data))
		}
		return b.NewArray(), nil
	}
	return nil, fmt.Errorf("unsupported buffer %T", buf)
}
