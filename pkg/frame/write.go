package frame

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/rootflat/pkg/errors"
)

// WriteCSV writes a header line followed by one line per row. Index levels
// are written as the leading columns.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	levels := f.index.Levels()

	header := append(append([]string{}, levels...), f.Names()...)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write CSV header")
	}

	record := make([]string, len(header))
	for i := 0; i < f.Len(); i++ {
		k := 0
		if len(levels) > 0 {
			for _, v := range f.index.Label(i) {
				record[k] = strconv.FormatInt(v, 10)
				k++
			}
		}
		for _, c := range f.columns {
			s, err := formatValue(c.Values.Value(i))
			if err != nil {
				return errors.Wrap(err, errors.ErrorTypeData, "failed to format value").
					WithDetail("column", c.Name).
					WithDetail("row", i)
			}
			record[k] = s
			k++
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write CSV row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush CSV writer")
	}
	return nil
}

// WriteJSON writes one JSON object per row (JSON lines). Keys follow
// column order, index levels first.
func (f *Frame) WriteJSON(w io.Writer) error {
	bw := bufio.NewWriter(w)
	levels := f.index.Levels()

	keys := make([][]byte, 0, len(levels)+len(f.columns))
	for _, name := range append(append([]string{}, levels...), f.Names()...) {
		k, err := gojson.Marshal(name)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to encode column name")
		}
		keys = append(keys, k)
	}

	for i := 0; i < f.Len(); i++ {
		bw.WriteByte('{')
		k := 0
		writeKey := func() {
			if k > 0 {
				bw.WriteByte(',')
			}
			bw.Write(keys[k])
			bw.WriteByte(':')
			k++
		}
		if len(levels) > 0 {
			for _, v := range f.index.Label(i) {
				writeKey()
				bw.WriteString(strconv.FormatInt(v, 10))
			}
		}
		for _, c := range f.columns {
			data, err := gojson.Marshal(c.Values.Value(i))
			if err != nil {
				return errors.Wrap(err, errors.ErrorTypeData, "failed to encode value").
					WithDetail("column", c.Name).
					WithDetail("row", i)
			}
			writeKey()
			bw.Write(data)
		}
		bw.WriteString("}\n")
	}

	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush JSON writer")
	}
	return nil
}

func formatValue(v any) (string, error) {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x), nil
	case int8:
		return strconv.FormatInt(int64(x), 10), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case string:
		return x, nil
	case nil:
		return "", nil
	}
	data, err := gojson.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
