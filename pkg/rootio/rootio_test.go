package rootio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/rootflat/pkg/errors"
)

func TestLayoutSize(t *testing.T) {
	tests := []struct {
		layout Layout
		size   int
	}{
		{DirectoryFirstLayout, 18},
		{DirectorySecondLayout, 12},
		{"<3hx?", 8},
		{"q2d", 24},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.layout), func(t *testing.T) {
			n, err := tt.layout.Size()
			require.NoError(t, err)
			assert.Equal(t, tt.size, n)
		})
	}

	_, err := Layout(">hz").Size()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeEncoding))

	_, err = Layout(">h3").Size()
	require.Error(t, err)
}

func TestLayoutPackUnpack(t *testing.T) {
	l := Layout("<bBhHiIqQfd?x")
	in := []any{int8(-2), uint8(200), int16(-300), uint16(60000), int32(-70000), uint32(4000000000),
		int64(-1) << 40, uint64(1) << 63, float32(1.5), 2.25, true}

	data, err := l.Pack(in...)
	require.NoError(t, err)
	size, _ := l.Size()
	assert.Len(t, data, size)
	assert.Equal(t, byte(0), data[len(data)-1])

	out, err := l.Unpack(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLayoutByteOrder(t *testing.T) {
	big, err := Layout(">H").Pack(uint16(0x0102))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, big)

	little, err := Layout("<H").Pack(uint16(0x0102))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x01}, little)

	bare, err := Layout("H").Pack(uint16(0x0102))
	require.NoError(t, err)
	assert.Equal(t, big, bare)
}

func TestLayoutNativeIsPacked(t *testing.T) {
	for _, l := range []Layout{"@bi", "=bi"} {
		n, err := l.Size()
		require.NoError(t, err)
		assert.Equal(t, 5, n, "layout %q", l)
	}

	at, err := Layout("@bi").Pack(int8(1), int32(2))
	require.NoError(t, err)
	eq, err := Layout("=bi").Pack(int8(1), int32(2))
	require.NoError(t, err)
	assert.Equal(t, eq, at)
}

func TestLayoutPackErrors(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		vals   []any
	}{
		{"too few values", ">ii", []any{1}},
		{"too many values", ">i", []any{1, 2}},
		{"overflow", ">h", []any{40000}},
		{"negative unsigned", ">I", []any{-1}},
		{"unsigned overflow signed", ">b", []any{uint8(200)}},
		{"wrong kind", ">i", []any{"ten"}},
		{"bool code", ">?", []any{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.layout.Pack(tt.vals...)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeEncoding))
		})
	}
}

func TestUnpackWrongLength(t *testing.T) {
	_, err := DirectorySecondLayout.Unpack(make([]byte, 11))
	require.Error(t, err)
}

func TestNewDirectoryInfo(t *testing.T) {
	d := NewDirectoryInfo(10, 20, 1234)

	assert.Equal(t, int16(5), d.Version())
	assert.Equal(t, uint32(1573188772), d.CreatedTime())
	assert.Equal(t, uint32(1573188772), d.ModifiedTime())
	assert.Equal(t, int32(10), d.KeysByteSize())
	assert.Equal(t, int32(20), d.NameByteSize())
	assert.Equal(t, int32(100), d.SelfSeek())
	assert.Equal(t, int32(0), d.ParentSeek())
	assert.Equal(t, int32(1234), d.KeysSeek())

	first := d.First()
	assert.Equal(t, Layout(">hIIii"), first.Layout)
	assert.Equal(t, []any{int16(5), uint32(1573188772), uint32(1573188772), int32(10), int32(20)}, first.Values)

	second := d.Second()
	assert.Equal(t, Layout(">iii"), second.Layout)
	assert.Equal(t, []any{int32(100), int32(0), int32(1234)}, second.Values)
}

func TestDirectoryInfoZero(t *testing.T) {
	d := NewDirectoryInfo(0, 0, 0)
	assert.Equal(t, []any{int16(5), uint32(1573188772), uint32(1573188772), int32(0), int32(0)}, d.First().Values)
	assert.Equal(t, []any{int32(100), int32(0), int32(0)}, d.Second().Values)
}

func TestDirectoryInfoNegativeSeek(t *testing.T) {
	// no validation is applied to caller values
	d := NewDirectoryInfo(1, 2, -5)
	assert.Equal(t, []any{int32(100), int32(0), int32(-5)}, d.Second().Values)

	raw, err := d.Second().Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 100, 0, 0, 0, 0, 0xff, 0xff, 0xff, 0xfb}, raw)
}

func TestDirectoryInfoBytes(t *testing.T) {
	d := NewDirectoryInfo(10, 20, 1234)

	first, err := d.First().Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x00, 0x05,
		0x5d, 0xc4, 0xf4, 0xa4,
		0x5d, 0xc4, 0xf4, 0xa4,
		0x00, 0x00, 0x00, 0x0a,
		0x00, 0x00, 0x00, 0x14,
	}, first)

	second, err := d.Second().Bytes()
	require.NoError(t, err)

	back, err := ReadDirectoryInfo(first, second)
	require.NoError(t, err)
	assert.Equal(t, d, back)

	_, err = ReadDirectoryInfo(first[:4], second)
	require.Error(t, err)
}

func TestDirectoryInfoWrite(t *testing.T) {
	d := NewDirectoryInfo(10, 4, 1234)

	var buf bytes.Buffer
	n, err := d.WriteNamed(&buf, []byte("tree"))
	require.NoError(t, err)
	assert.Equal(t, int64(18+4+12), n)

	raw := buf.Bytes()
	assert.Equal(t, []byte("tree"), raw[18:22])

	back, err := ReadDirectoryInfo(raw[:18], raw[22:])
	require.NoError(t, err)
	assert.Equal(t, d, back)

	buf.Reset()
	n, err = d.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(30), n)
}
