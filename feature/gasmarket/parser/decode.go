package parser

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"gas-market/core/validation"
)

const bom = "\ufeff"

// Decode turns raw bytes into text, trying each configured encoding in order
// and returning the first that decodes cleanly.
func Decode(cfg Config, data []byte) (string, error) {
	if len(data) == 0 {
		return "", validation.New(validation.KindEmptyInput, "empty file")
	}

	for _, cs := range cfg.charsets {
		if cs.UTF8 {
			if utf8.Valid(data) {
				return strings.TrimPrefix(string(data), bom), nil
			}
			continue
		}

		out, err := cs.Encoding.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		// Bytes a code page cannot map decode to U+FFFD.
		if bytes.ContainsRune(out, utf8.RuneError) {
			continue
		}
		return string(out), nil
	}

	return "", validation.New(validation.KindUndecodableInput,
		"could not decode file, tried %s; use UTF-8 or Latin-1", strings.Join(cfg.Encodings(), ", "))
}
