package parser

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// Format is the detected shape of an upload.
type Format string

const (
	FormatJSON    Format = "json"
	FormatTabular Format = "tabular"
)

// DetectDelimiter picks the candidate delimiter occurring most often in text.
// Ties go to the earlier candidate; no occurrences yields the default.
func DetectDelimiter(cfg Config, text string) rune {
	best, bestCount := cfg.defaultDelimiter, 0
	for _, d := range cfg.delimiters {
		if n := strings.Count(text, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// decodeJSON reports whether trimmed text is a JSON document. Text that looks
// like JSON but does not parse is left to the tabular path.
func decodeJSON(trimmed string) (any, bool) {
	if !strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return payload, true
}

// extractRows finds the row list of a JSON payload: a top level array, the
// first container key holding an array, or the object itself as one row.
func extractRows(cfg Config, payload any) ([]any, bool) {
	switch v := payload.(type) {
	case []any:
		return v, true
	case map[string]any:
		for _, key := range cfg.containerKeys {
			if rows, ok := v[key].([]any); ok {
				return rows, true
			}
		}
		return []any{v}, true
	default:
		return nil, false
	}
}
