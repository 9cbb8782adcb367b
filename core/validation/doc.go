// Package validation defines the structured, user-facing failures reported while
// ingesting gas market records.
//
// Every failure carries a Kind (EmptyInput, MissingColumns, InvalidDate, ...), an
// optional 1-based row index and field, and a stable support code. Row-level
// failures are accumulated into a List instead of aborting at the first bad row.
//
// HTTP handlers and CLI commands turn these errors into 400 responses / exit
// codes; any other error is treated as an internal persistence failure.
package validation
