package parser

import (
	"fmt"

	"gas-market/core/utils"
)

// DefaultEncodings is the decoder fallback order used when none is configured.
var DefaultEncodings = []string{"utf-8-sig", "latin-1", "cp1258"}

// Config is the immutable parser configuration. Build it with DefaultConfig
// or NewConfig; the zero value is not usable.
type Config struct {
	charsets         []utils.Charset
	requiredColumns  []string
	containerKeys    []string
	dateLayouts      []string
	delimiters       []rune
	defaultDelimiter rune
}

// DefaultConfig returns the configuration with the default encodings.
func DefaultConfig() Config {
	cfg, err := NewConfig(DefaultEncodings...)
	if err != nil {
		panic(fmt.Sprintf("parser: default encodings: %v", err))
	}
	return cfg
}

// NewConfig builds a configuration decoding with the given encodings, tried
// in order. An empty list falls back to DefaultEncodings.
func NewConfig(encodings ...string) (Config, error) {
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}

	charsets := make([]utils.Charset, 0, len(encodings))
	for _, name := range encodings {
		cs, err := utils.LookupCharset(name)
		if err != nil {
			return Config{}, err
		}
		charsets = append(charsets, cs)
	}

	return Config{
		charsets:         charsets,
		requiredColumns:  []string{"DATA", "PLANILHA", "ABA", "PRODUTO", "UNIDADE", "VALOR"},
		containerKeys:    []string{"registros", "dados", "items", "itens", "data", "result"},
		dateLayouts:      []string{"2006-1-2", "2/1/2006", "2-1-2006"},
		delimiters:       []rune{';', '\t', '|', ','},
		defaultDelimiter: ';',
	}, nil
}

// Encodings returns the configured encoding names in fallback order.
func (c Config) Encodings() []string {
	names := make([]string, len(c.charsets))
	for i, cs := range c.charsets {
		names[i] = cs.Name
	}
	return names
}
