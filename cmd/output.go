package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gas-market/core/validation"

	"gopkg.in/yaml.v3"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitInvalidInput = 2 // rejected file or parameters
)

// Output formats accepted by --output.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ExitError carries a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if validation.IsValidation(err) {
		return ExitInvalidInput
	}
	return ExitFailure
}

// texter is implemented by reports with a human readable rendering.
type texter interface {
	Text() string
}

// OutputFormatter writes command results as text, JSON or YAML.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// NewOutputFormatter validates format and returns a formatter writing to w.
func NewOutputFormatter(format string, w io.Writer) (*OutputFormatter, error) {
	switch f := strings.ToLower(format); f {
	case FormatText, FormatJSON, FormatYAML:
		return &OutputFormatter{Format: f, Writer: w}, nil
	default:
		return nil, &ExitError{Code: ExitInvalidInput, Err: fmt.Errorf("unknown output format %q (want text, json or yaml)", format)}
	}
}

// Print renders data in the configured format.
func (f *OutputFormatter) Print(data any) error {
	switch f.Format {
	case FormatJSON:
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	default:
		if t, ok := data.(texter); ok {
			_, err := fmt.Fprint(f.Writer, t.Text())
			return err
		}
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
}
