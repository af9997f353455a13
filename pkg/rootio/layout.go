// Package rootio encodes fixed-layout binary records used in ROOT file
// metadata.
//
// Layouts are described with compact format strings: an optional byte order
// prefix ('>' or '!' big-endian, '<' little-endian, '=' or '@' native)
// followed by element codes, each optionally preceded by a repeat count:
//
//	x pad byte    b int8     B uint8    ? bool
//	h int16       H uint16   i,l int32  I,L uint32
//	q int64       Q uint64   f float32  d float64
//
// A layout without a prefix is big-endian, the order ROOT files are written in,
// and no layout ever inserts alignment padding: '@' means native byte order
// with packed elements, the same as '='.
package rootio

import (
	"encoding/binary"
	"math"

	"github.com/ajitpratap0/rootflat/pkg/errors"
)

// Layout is a binary record format string such as ">hIIii"
type Layout string

type element struct {
	code byte
	size int
}

var sizes = map[byte]int{
	'x': 1, 'b': 1, 'B': 1, '?': 1,
	'h': 2, 'H': 2,
	'i': 4, 'I': 4, 'l': 4, 'L': 4, 'f': 4,
	'q': 8, 'Q': 8, 'd': 8,
}

func (l Layout) parse() (binary.ByteOrder, []element, error) {
	s := string(l)
	var order binary.ByteOrder = binary.BigEndian
	if len(s) > 0 {
		switch s[0] {
		case '>', '!':
			s = s[1:]
		case '<':
			order = binary.LittleEndian
			s = s[1:]
		case '=', '@':
			order = binary.NativeEndian
			s = s[1:]
		}
	}

	var out []element
	count := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			if count < 0 {
				count = 0
			}
			count = count*10 + int(c-'0')
			continue
		}
		if c == ' ' {
			continue
		}
		size, ok := sizes[c]
		if !ok {
			return nil, nil, errors.Newf(errors.ErrorTypeEncoding, "bad layout %q: unknown code %q", string(l), c)
		}
		n := 1
		if count >= 0 {
			n = count
		}
		for k := 0; k < n; k++ {
			out = append(out, element{code: c, size: size})
		}
		count = -1
	}
	if count >= 0 {
		return nil, nil, errors.Newf(errors.ErrorTypeEncoding, "bad layout %q: repeat count without code", string(l))
	}
	return order, out, nil
}

// Size returns the encoded length in bytes
func (l Layout) Size() (int, error) {
	_, elems, err := l.parse()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range elems {
		n += e.size
	}
	return n, nil
}

// Pack encodes vals according to the layout. Pad bytes take no value.
func (l Layout) Pack(vals ...any) ([]byte, error) {
	return l.AppendPack(nil, vals...)
}

// AppendPack appends the encoding of vals to dst
func (l Layout) AppendPack(dst []byte, vals ...any) ([]byte, error) {
	order, elems, err := l.parse()
	if err != nil {
		return nil, err
	}

	want := 0
	for _, e := range elems {
		if e.code != 'x' {
			want++
		}
	}
	if len(vals) != want {
		return nil, errors.Newf(errors.ErrorTypeEncoding, "layout %q takes %d values, got %d", string(l), want, len(vals))
	}

	var buf [8]byte
	k := 0
	for _, e := range elems {
		if e.code == 'x' {
			dst = append(dst, 0)
			continue
		}
		v := vals[k]
		k++

		switch e.code {
		case '?':
			b, ok := v.(bool)
			if !ok {
				return nil, badValue(l, k-1, e.code, v)
			}
			if b {
				dst = append(dst, 1)
			} else {
				dst = append(dst, 0)
			}
		case 'f':
			f, ok := asFloat(v)
			if !ok {
				return nil, badValue(l, k-1, e.code, v)
			}
			order.PutUint32(buf[:4], math.Float32bits(float32(f)))
			dst = append(dst, buf[:4]...)
		case 'd':
			f, ok := asFloat(v)
			if !ok {
				return nil, badValue(l, k-1, e.code, v)
			}
			order.PutUint64(buf[:8], math.Float64bits(f))
			dst = append(dst, buf[:8]...)
		default:
			u, ok := fitInteger(v, e)
			if !ok {
				return nil, badValue(l, k-1, e.code, v)
			}
			switch e.size {
			case 1:
				dst = append(dst, byte(u))
			case 2:
				order.PutUint16(buf[:2], uint16(u))
				dst = append(dst, buf[:2]...)
			case 4:
				order.PutUint32(buf[:4], uint32(u))
				dst = append(dst, buf[:4]...)
			case 8:
				order.PutUint64(buf[:8], u)
				dst = append(dst, buf[:8]...)
			}
		}
	}
	return dst, nil
}

// Unpack decodes data, which must be exactly Size bytes long. Values come
// back as the Go type matching each code (int16 for 'h', uint32 for 'I', ...).
func (l Layout) Unpack(data []byte) ([]any, error) {
	order, elems, err := l.parse()
	if err != nil {
		return nil, err
	}
	size := 0
	for _, e := range elems {
		size += e.size
	}
	if len(data) != size {
		return nil, errors.Newf(errors.ErrorTypeEncoding, "layout %q needs %d bytes, got %d", string(l), size, len(data))
	}

	out := make([]any, 0, len(elems))
	pos := 0
	for _, e := range elems {
		b := data[pos : pos+e.size]
		pos += e.size
		switch e.code {
		case 'x':
			continue
		case '?':
			out = append(out, b[0] != 0)
		case 'b':
			out = append(out, int8(b[0]))
		case 'B':
			out = append(out, b[0])
		case 'h':
			out = append(out, int16(order.Uint16(b)))
		case 'H':
			out = append(out, order.Uint16(b))
		case 'i', 'l':
			out = append(out, int32(order.Uint32(b)))
		case 'I', 'L':
			out = append(out, order.Uint32(b))
		case 'q':
			out = append(out, int64(order.Uint64(b)))
		case 'Q':
			out = append(out, order.Uint64(b))
		case 'f':
			out = append(out, math.Float32frombits(order.Uint32(b)))
		case 'd':
			out = append(out, math.Float64frombits(order.Uint64(b)))
		}
	}
	return out, nil
}

func badValue(l Layout, i int, code byte, v any) error {
	return errors.Newf(errors.ErrorTypeEncoding, "layout %q: value %d (%v) does not fit code %q", string(l), i, v, code)
}

// fitInteger range-checks an integer value against an element code and
// returns its two's complement bits
func fitInteger(v any, e element) (uint64, bool) {
	signed := e.code == 'b' || e.code == 'h' || e.code == 'i' || e.code == 'l' || e.code == 'q'
	bits := uint(e.size * 8)

	if s, ok := asSigned(v); ok {
		if signed {
			if bits < 64 && (s < -(1<<(bits-1)) || s >= 1<<(bits-1)) {
				return 0, false
			}
			return uint64(s), true
		}
		if s < 0 || (bits < 64 && uint64(s) >= 1<<bits) {
			return 0, false
		}
		return uint64(s), true
	}
	if u, ok := asUnsigned(v); ok {
		if signed {
			if u >= 1<<(bits-1) {
				return 0, false
			}
			return u, true
		}
		if bits < 64 && u >= 1<<bits {
			return 0, false
		}
		return u, true
	}
	return 0, false
}

func asSigned(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}

func asUnsigned(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	if s, ok := asSigned(v); ok {
		return float64(s), true
	}
	if u, ok := asUnsigned(v); ok {
		return float64(u), true
	}
	return 0, false
}
