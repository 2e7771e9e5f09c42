package header

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/meigma/sevenz/internal/sztype"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodeName returns name as UTF-16LE code units without a BOM, followed by
// the 2-byte NUL terminator.
func EncodeName(name string) ([]byte, error) {
	switch {
	case name == "":
		return nil, sztype.ErrFormat.New("empty entry name")
	case !utf8.ValidString(name):
		return nil, sztype.ErrFormat.New(fmt.Sprintf("entry name %q is not valid UTF-8", name))
	case strings.ContainsRune(name, 0):
		return nil, sztype.ErrFormat.New(fmt.Sprintf("entry name %q contains NUL", name))
	}

	b, err := utf16le.NewEncoder().Bytes([]byte(name))
	if err != nil {
		return nil, sztype.ErrFormat.Wrap(err, fmt.Sprintf("encode entry name %q", name))
	}
	return append(b, 0, 0), nil
}
