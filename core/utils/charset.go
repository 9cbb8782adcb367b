package utils

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// Charset is a named text encoding used when decoding uploads.
type Charset struct {
	Name     string
	Encoding encoding.Encoding
	// UTF8 marks the BOM tolerant UTF-8 candidate, which is validated strictly
	// instead of relying on replacement characters.
	UTF8 bool
}

var charsetAliases = map[string]Charset{
	"utf-8-sig":    {Encoding: unicode.UTF8BOM, UTF8: true},
	"utf8-sig":     {Encoding: unicode.UTF8BOM, UTF8: true},
	"utf-8":        {Encoding: unicode.UTF8BOM, UTF8: true},
	"utf8":         {Encoding: unicode.UTF8BOM, UTF8: true},
	"latin-1":      {Encoding: charmap.ISO8859_1},
	"latin1":       {Encoding: charmap.ISO8859_1},
	"iso-8859-1":   {Encoding: charmap.ISO8859_1},
	"cp1252":       {Encoding: charmap.Windows1252},
	"windows-1252": {Encoding: charmap.Windows1252},
	"cp1258":       {Encoding: charmap.Windows1258},
	"windows-1258": {Encoding: charmap.Windows1258},
}

// LookupCharset resolves an encoding name. Common aliases are resolved first,
// then the IANA registry is consulted.
func LookupCharset(name string) (Charset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Charset{}, fmt.Errorf("empty encoding name")
	}
	if cs, ok := charsetAliases[key]; ok {
		cs.Name = key
		return cs, nil
	}
	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil || enc == nil {
		return Charset{}, fmt.Errorf("unknown encoding %q", name)
	}
	return Charset{Name: key, Encoding: enc, UTF8: enc == unicode.UTF8}, nil
}
