package validation

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a user-facing validation failure.
type Kind string

const (
	KindEmptyInput         Kind = "EmptyInput"
	KindUndecodableInput   Kind = "UndecodableInput"
	KindInvalidFile        Kind = "InvalidFile"
	KindMissingColumns     Kind = "MissingColumns"
	KindInvalidRow         Kind = "InvalidRow"
	KindInvalidDate        Kind = "InvalidDate"
	KindInvalidNumber      Kind = "InvalidNumber"
	KindNoValidRows        Kind = "NoValidRows"
	KindDuplicateKey       Kind = "DuplicateKeyInBatch"
	KindEmptyRequiredField Kind = "EmptyRequiredField"
	KindInvalidParameter   Kind = "InvalidParameter"
)

// codes are quoted to support staff; they never change once published.
var codes = map[Kind]string{
	KindInvalidDate:        "VAL001",
	KindInvalidNumber:      "VAL002",
	KindEmptyRequiredField: "VAL003",
	KindMissingColumns:     "VAL004",
	KindDuplicateKey:       "VAL005",
	KindInvalidRow:         "VAL006",
	KindNoValidRows:        "VAL007",
	KindInvalidParameter:   "VAL008",
	KindEmptyInput:         "FILE001",
	KindUndecodableInput:   "FILE002",
	KindInvalidFile:        "FILE003",
}

// Error is a single validation failure. Row is 1-based, 0 when the failure
// concerns the whole payload.
type Error struct {
	Kind    Kind
	Row     int
	Field   string
	Value   string
	Message string
	// Columns lists missing column names for KindMissingColumns.
	Columns []string
	// Header is the raw header found in a tabular payload, if any.
	Header []string
}

func (e *Error) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return e.Message
}

// Code returns the support reference code for the error kind.
func (e *Error) Code() string {
	if code, ok := codes[e.Kind]; ok {
		return code
	}
	return "VAL000"
}

// New creates a payload-level validation error.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AtRow creates a validation error pinned to a row and field.
func AtRow(kind Kind, row int, field, value, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Row:     row,
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	}
}

// List accumulates row-level failures so that every bad row is reported at once.
type List []*Error

func (l List) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors to errors.Is / errors.As.
func (l List) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}

// Add appends an error to the list.
func (l *List) Add(e *Error) {
	*l = append(*l, e)
}

// Err returns the list as an error, or nil when it is empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Is reports whether err, or anything it wraps, is a validation error of kind.
func Is(err error, kind Kind) bool {
	for _, e := range flatten(err) {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// IsValidation reports whether err carries at least one validation error.
func IsValidation(err error) bool {
	var target *Error
	return errors.As(err, &target)
}

// Detail is the JSON shape of a validation error in API and CLI responses.
type Detail struct {
	Code    string   `json:"code" yaml:"code"`
	Kind    Kind     `json:"kind" yaml:"kind"`
	Row     int      `json:"row,omitempty" yaml:"row,omitempty"`
	Field   string   `json:"field,omitempty" yaml:"field,omitempty"`
	Value   string   `json:"value,omitempty" yaml:"value,omitempty"`
	Message string   `json:"message" yaml:"message"`
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	Header  []string `json:"header,omitempty" yaml:"header,omitempty"`
}

// Details flattens err into response details.
func Details(err error) []Detail {
	flat := flatten(err)
	details := make([]Detail, 0, len(flat))
	for _, e := range flat {
		details = append(details, Detail{
			Code:    e.Code(),
			Kind:    e.Kind,
			Row:     e.Row,
			Field:   e.Field,
			Value:   e.Value,
			Message: e.Message,
			Columns: e.Columns,
			Header:  e.Header,
		})
	}
	return details
}

func flatten(err error) []*Error {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case *Error:
		return []*Error{e}
	case List:
		return e
	}
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*Error
		for _, inner := range multi.Unwrap() {
			out = append(out, flatten(inner)...)
		}
		return out
	}
	return flatten(errors.Unwrap(err))
}
