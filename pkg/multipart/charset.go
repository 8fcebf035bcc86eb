package multipart

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Charset pairs the name written into part headers with the encoding
// used to turn text values into bytes.
type Charset struct {
	Name     string
	Encoding encoding.Encoding
}

var (
	UTF8     = Charset{Name: "UTF-8", Encoding: unicode.UTF8}
	ISO88591 = Charset{Name: "ISO-8859-1", Encoding: charmap.ISO8859_1}
)

// Bytes encodes s with the charset. Runes the charset cannot represent
// are replaced instead of failing the whole body.
func (c Charset) Bytes(s string) []byte {
	if c.Encoding == nil {
		return []byte(s)
	}
	b, err := encoding.ReplaceUnsupported(c.Encoding.NewEncoder()).String(s)
	if err != nil {
		return []byte(s)
	}
	return []byte(b)
}
