package rootio

import (
	"io"

	"github.com/ajitpratap0/rootflat/pkg/errors"
)

// Fixed values written into every directory record
const (
	DirectoryVersion int16  = 5
	DirectoryDatime  uint32 = 1573188772
	DirectorySeekDir int32  = 100
	DirectorySeekUp  int32  = 0
)

// Byte layouts of the two directory record groups
const (
	DirectoryFirstLayout  Layout = ">hIIii"
	DirectorySecondLayout Layout = ">iii"
)

// Group is one contiguous packed region of a record: a layout plus the values
// it encodes, in order.
type Group struct {
	Layout Layout
	Values []any
}

// Bytes packs the group's values
func (g Group) Bytes() ([]byte, error) {
	return g.Layout.Pack(g.Values...)
}

// DirectoryInfo is the metadata block describing a ROOT directory. Values are
// immutable once constructed.
type DirectoryInfo struct {
	version      int16
	createdTime  uint32
	modifiedTime uint32
	keysByteSize int32
	nameByteSize int32
	selfSeek     int32
	parentSeek   int32
	keysSeek     int32
}

// NewDirectoryInfo builds a record with the fixed defaults and the three
// caller supplied sizes and offsets
func NewDirectoryInfo(keysByteSize, nameByteSize, keysSeek int32) DirectoryInfo {
	return DirectoryInfo{
		version:      DirectoryVersion,
		createdTime:  DirectoryDatime,
		modifiedTime: DirectoryDatime,
		keysByteSize: keysByteSize,
		nameByteSize: nameByteSize,
		selfSeek:     DirectorySeekDir,
		parentSeek:   DirectorySeekUp,
		keysSeek:     keysSeek,
	}
}

// ReadDirectoryInfo decodes the two packed groups produced by First and Second
func ReadDirectoryInfo(first, second []byte) (DirectoryInfo, error) {
	a, err := DirectoryFirstLayout.Unpack(first)
	if err != nil {
		return DirectoryInfo{}, errors.Wrap(err, errors.ErrorTypeEncoding, "decode directory header")
	}
	b, err := DirectorySecondLayout.Unpack(second)
	if err != nil {
		return DirectoryInfo{}, errors.Wrap(err, errors.ErrorTypeEncoding, "decode directory seeks")
	}
	return DirectoryInfo{
		version:      a[0].(int16),
		createdTime:  a[1].(uint32),
		modifiedTime: a[2].(uint32),
		keysByteSize: a[3].(int32),
		nameByteSize: a[4].(int32),
		selfSeek:     b[0].(int32),
		parentSeek:   b[1].(int32),
		keysSeek:     b[2].(int32),
	}, nil
}

func (d DirectoryInfo) Version() int16       { return d.version }
func (d DirectoryInfo) CreatedTime() uint32  { return d.createdTime }
func (d DirectoryInfo) ModifiedTime() uint32 { return d.modifiedTime }
func (d DirectoryInfo) KeysByteSize() int32  { return d.keysByteSize }
func (d DirectoryInfo) NameByteSize() int32  { return d.nameByteSize }
func (d DirectoryInfo) SelfSeek() int32      { return d.selfSeek }
func (d DirectoryInfo) ParentSeek() int32    { return d.parentSeek }
func (d DirectoryInfo) KeysSeek() int32      { return d.keysSeek }

// First returns the version, timestamps and byte sizes group
func (d DirectoryInfo) First() Group {
	return Group{
		Layout: DirectoryFirstLayout,
		Values: []any{d.version, d.createdTime, d.modifiedTime, d.keysByteSize, d.nameByteSize},
	}
}

// Second returns the seek offsets group
func (d DirectoryInfo) Second() Group {
	return Group{
		Layout: DirectorySecondLayout,
		Values: []any{d.selfSeek, d.parentSeek, d.keysSeek},
	}
}

// Encode packs the full record: the first group, then name, then the second
// group. name may be empty.
func (d DirectoryInfo) Encode(name []byte) ([]byte, error) {
	first := d.First()
	out, err := first.Layout.AppendPack(nil, first.Values...)
	if err != nil {
		return nil, err
	}
	out = append(out, name...)
	second := d.Second()
	return second.Layout.AppendPack(out, second.Values...)
}

// WriteTo writes the record with no name between the groups
func (d DirectoryInfo) WriteTo(w io.Writer) (int64, error) {
	return d.WriteNamed(w, nil)
}

// WriteNamed writes the record with name placed between the two groups
func (d DirectoryInfo) WriteNamed(w io.Writer, name []byte) (int64, error) {
	buf, err := d.Encode(name)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	if err != nil {
		return int64(n), errors.Wrap(err, errors.ErrorTypeFile, "write directory record")
	}
	return int64(n), nil
}
