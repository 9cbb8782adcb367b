package parser

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"gas-market/core/validation"
	"gas-market/feature/gasmarket/models"
)

// Result is the outcome of parsing one upload. Records holds every row that
// normalized cleanly and Errors every row that did not.
type Result struct {
	Format    Format
	Delimiter rune
	Header    []string
	Records   []models.Candidate
	Errors    validation.List
}

// Err returns the row errors, or nil. Any row error rejects the whole upload.
func (r *Result) Err() error {
	return r.Errors.Err()
}

// DelimiterName returns a printable name for the detected delimiter.
func (r *Result) DelimiterName() string {
	switch r.Delimiter {
	case 0:
		return ""
	case '\t':
		return "\\t"
	default:
		return string(r.Delimiter)
	}
}

// Parse decodes an upload, detects its format and normalizes every row.
//
// Payload level failures (empty or undecodable input, missing columns, no data
// rows) are returned as the error. Row level failures are collected in
// Result.Errors; when no row survives they are returned as the error too.
func Parse(cfg Config, data []byte) (*Result, error) {
	text, err := Decode(cfg, data)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, validation.New(validation.KindEmptyInput, "empty file")
	}

	if payload, ok := decodeJSON(trimmed); ok {
		if rows, ok := extractRows(cfg, payload); ok {
			return parseJSON(cfg, rows)
		}
	}

	return parseTabular(cfg, text)
}

func parseTabular(cfg Config, text string) (*Result, error) {
	delimiter := DetectDelimiter(cfg, text)

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	lines, err := reader.ReadAll()
	if err != nil {
		return nil, validation.New(validation.KindInvalidFile, "malformed tabular content: %v", err)
	}
	if len(lines) == 0 {
		return nil, validation.New(validation.KindInvalidFile, "header not found in file")
	}

	header := lines[0]
	mapping := NormalizeHeader(header)
	if missing := missingColumns(cfg, mapping); len(missing) > 0 {
		found := make([]string, len(header))
		for i, name := range header {
			if strings.TrimSpace(name) == "" {
				name = "<empty>"
			}
			found[i] = name
		}
		e := validation.New(validation.KindMissingColumns,
			"missing required columns: %s; header found: [%s]",
			strings.Join(missing, ", "), strings.Join(found, ", "))
		e.Columns = missing
		e.Header = found
		return nil, e
	}

	// First column index of every canonical name.
	index := make(map[string]int, len(mapping))
	for i, name := range header {
		canonical := NormalizeKey(name)
		if _, ok := mapping[canonical]; !ok {
			continue
		}
		if _, seen := index[canonical]; !seen {
			index[canonical] = i
		}
	}

	rows := make([]map[string]any, 0, len(lines)-1)
	for _, cells := range lines[1:] {
		row := make(map[string]any, len(index))
		for canonical, i := range index {
			if i < len(cells) {
				row[canonical] = cells[i]
			} else {
				row[canonical] = nil
			}
		}
		rows = append(rows, row)
	}

	result := &Result{Format: FormatTabular, Delimiter: delimiter, Header: header}
	return normalizeAll(cfg, result, rows, nil, 2)
}

func parseJSON(cfg Config, raw []any) (*Result, error) {
	if len(raw) == 0 {
		return nil, validation.New(validation.KindNoValidRows, "file has no data records")
	}

	var errs validation.List
	rows := make([]map[string]any, 0, len(raw))
	positions := make([]int, 0, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			errs.Add(validation.AtRow(validation.KindInvalidRow, i+1, "", "", "invalid record format"))
			continue
		}
		rows = append(rows, normalizeRow(obj))
		positions = append(positions, i+1)
	}

	if len(rows) == 0 {
		errs.Add(validation.New(validation.KindNoValidRows, "no valid records found"))
		return nil, errs
	}

	present := make(map[string]string)
	for _, row := range rows {
		for key := range row {
			present[key] = key
		}
	}
	if missing := missingColumns(cfg, present); len(missing) > 0 {
		e := validation.New(validation.KindMissingColumns, "missing required columns: %s", strings.Join(missing, ", "))
		e.Columns = missing
		return nil, e
	}

	result := &Result{Format: FormatJSON, Errors: errs}
	return normalizeAll(cfg, result, rows, positions, 1)
}

// normalizeAll converts canonical rows to candidates. Row numbers come from
// positions when given, otherwise from the row offset plus base.
func normalizeAll(cfg Config, result *Result, rows []map[string]any, positions []int, base int) (*Result, error) {
	if len(rows) == 0 {
		return nil, validation.New(validation.KindNoValidRows, "file has no data records")
	}

	for i, row := range rows {
		rowNum := i + base
		if positions != nil {
			rowNum = positions[i]
		}
		candidate, errs := toCandidate(cfg, row, rowNum)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}
		result.Records = append(result.Records, candidate)
	}

	if len(result.Records) == 0 {
		errs := append(validation.List{}, result.Errors...)
		errs.Add(validation.New(validation.KindNoValidRows, "no valid records found"))
		return nil, errs
	}

	sortErrors(result.Errors)
	return result, nil
}

func sortErrors(errs validation.List) {
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Row < errs[j].Row })
}

func missingColumns(cfg Config, present map[string]string) []string {
	var missing []string
	for _, col := range cfg.requiredColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	sort.Strings(missing)
	return missing
}

// Summary returns a one line description of the result, used in logs.
func (r *Result) Summary() string {
	return fmt.Sprintf("format=%s delimiter=%q records=%d errors=%d", r.Format, r.DelimiterName(), len(r.Records), len(r.Errors))
}
