package flatten

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Namer derives a column name from a field name, an optional record
// subfield and an index tuple into the fixed dims. An absent subfield is
// passed as "", so a subfield genuinely named "" cannot be told apart from
// no subfield.
type Namer func(field, subfield string, index []int) string

// DefaultNamer produces field, field.sub, field[i][j] and field.sub[i][j].
// An empty subfield adds no separator.
// Field names that are not valid UTF-8 are decoded with replacement
// characters.
func DefaultNamer(field, subfield string, index []int) string {
	var b strings.Builder
	if utf8.ValidString(field) {
		b.WriteString(field)
	} else {
		b.WriteString(strings.ToValidUTF8(field, string(utf8.RuneError)))
	}
	if subfield != "" {
		b.WriteByte('.')
		b.WriteString(subfield)
	}
	if len(index) > 0 {
		b.WriteByte('[')
		for k, i := range index {
			if k > 0 {
				b.WriteString("][")
			}
			b.WriteString(strconv.Itoa(i))
		}
		b.WriteByte(']')
	}
	return b.String()
}
