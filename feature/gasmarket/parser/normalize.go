package parser

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gas-market/core/utils"
	"gas-market/core/validation"
	"gas-market/feature/gasmarket/models"
)

const quoteChars = "\"'\u201c\u201d\u2018\u2019"

// NormalizeKey canonicalizes a header or JSON key: surrounding whitespace and
// quote characters are removed and the result is uppercased.
func NormalizeKey(key string) string {
	key = strings.Trim(strings.TrimSpace(key), quoteChars)
	return strings.ToUpper(strings.TrimSpace(key))
}

// NormalizeHeader maps canonical column names to the original header cell.
// Blank names are dropped and the first occurrence of a duplicate wins.
func NormalizeHeader(header []string) map[string]string {
	mapping := make(map[string]string, len(header))
	for _, name := range header {
		canonical := NormalizeKey(name)
		if canonical == "" {
			continue
		}
		if _, exists := mapping[canonical]; !exists {
			mapping[canonical] = name
		}
	}
	return mapping
}

// normalizeRow canonicalizes the keys of a loosely keyed row. Keys are visited
// in sorted order so that the first of two colliding keys wins deterministically.
func normalizeRow(row map[string]any) map[string]any {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(row))
	for _, k := range keys {
		canonical := NormalizeKey(k)
		if canonical == "" {
			continue
		}
		if _, exists := out[canonical]; !exists {
			out[canonical] = row[k]
		}
	}
	return out
}

// ParseDate parses the DATA field, trying each configured layout in order.
func ParseDate(cfg Config, value any) (models.Date, error) {
	text := strings.TrimSpace(utils.ToString(value))
	if text == "" {
		return models.Date{}, &validation.Error{
			Kind:    validation.KindInvalidDate,
			Field:   "DATA",
			Message: "field DATA must not be empty",
		}
	}

	for _, layout := range cfg.dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return models.DateOf(t), nil
		}
	}

	return models.Date{}, &validation.Error{
		Kind:    validation.KindInvalidDate,
		Field:   "DATA",
		Value:   text,
		Message: fmt.Sprintf("invalid date format: '%s'", text),
	}
}

// ParseNumber parses the VALOR field. Missing or blank values are 0. When both
// '.' and ',' appear, the one appearing last is the decimal separator.
func ParseNumber(value any) (float64, error) {
	if value == nil {
		return 0, nil
	}
	if f, ok := utils.ToFloat(value); ok {
		return checkFinite(f, utils.ToString(value))
	}
	if b, ok := value.(bool); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}

	text := strings.TrimSpace(utils.ToString(value))
	text = strings.NewReplacer(" ", "", "\u00a0", "").Replace(text)
	if text == "" {
		return 0, nil
	}
	raw := text

	lastDot, lastComma := strings.LastIndex(text, "."), strings.LastIndex(text, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			text = strings.ReplaceAll(text, ".", "")
			text = strings.ReplaceAll(text, ",", ".")
		} else {
			text = strings.ReplaceAll(text, ",", "")
		}
	case lastComma >= 0:
		text = strings.ReplaceAll(text, ",", ".")
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, invalidNumber(raw)
	}
	return checkFinite(f, raw)
}

func checkFinite(f float64, raw string) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalidNumber(raw)
	}
	return f, nil
}

func invalidNumber(raw string) error {
	return &validation.Error{
		Kind:    validation.KindInvalidNumber,
		Field:   "VALOR",
		Value:   raw,
		Message: fmt.Sprintf("invalid number: '%s'", raw),
	}
}

var textFields = []string{"DATA", "PLANILHA", "ABA", "PRODUTO", "LOCAL", "EMPRESA", "UNIDADE", "VALOR"}

// toCandidate converts one canonical row into a candidate. Every failing field
// is reported, tagged with the 1-based row index.
func toCandidate(cfg Config, row map[string]any, index int) (models.Candidate, validation.List) {
	var errs validation.List

	for _, field := range textFields {
		if !utils.IsScalar(row[field]) {
			errs.Add(validation.AtRow(validation.KindInvalidRow, index, field, "",
				"field %s must be a scalar value", field))
		}
	}
	if len(errs) > 0 {
		return models.Candidate{}, errs
	}

	var c models.Candidate

	date, err := ParseDate(cfg, row["DATA"])
	if err != nil {
		errs.Add(atRow(err, index))
	}
	c.Date = date

	value, err := ParseNumber(row["VALOR"])
	if err != nil {
		errs.Add(atRow(err, index))
	}
	c.Value = value

	c.Spreadsheet = strings.TrimSpace(utils.ToString(row["PLANILHA"]))
	c.Sheet = strings.TrimSpace(utils.ToString(row["ABA"]))
	c.Product = strings.TrimSpace(utils.ToString(row["PRODUTO"]))
	c.Unit = strings.TrimSpace(utils.ToString(row["UNIDADE"]))
	c.Location = optionalText(row["LOCAL"])
	c.Company = optionalText(row["EMPRESA"])

	return c, errs
}

func atRow(err error, index int) *validation.Error {
	e := *err.(*validation.Error)
	e.Row = index
	return &e
}

func optionalText(value any) *string {
	if value == nil {
		return nil
	}
	s := utils.ToString(value)
	return models.OptionalString(&s)
}
