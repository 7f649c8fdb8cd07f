package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = fmt.Errorf("not found")
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrUnsupportedFormat = fmt.Errorf("unsupported file format")
	ErrParse             = fmt.Errorf("unreadable file")
	ErrMissingColumns    = fmt.Errorf("missing required columns")
	ErrDuplicateEmployee = fmt.Errorf("duplicate employee id")
)

// RowError describes one problem found in a single row of an uploaded file.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Column, e.Message)
}

// RowErrors collects every row-level problem of an upload.
// It matches ErrInvalidInput with errors.Is.
type RowErrors []RowError

func (e RowErrors) Error() string {
	if len(e) == 0 {
		return "no row errors"
	}
	parts := make([]string, 0, len(e))
	for _, re := range e {
		parts = append(parts, re.Error())
	}
	return fmt.Sprintf("%d invalid rows: %s", len(e), strings.Join(parts, "; "))
}

func (e RowErrors) Unwrap() error {
	return ErrInvalidInput
}

// AsRowErrors extracts RowErrors from an error chain.
func AsRowErrors(err error) (RowErrors, bool) {
	var rows RowErrors
	if errors.As(err, &rows) {
		return rows, true
	}
	return nil, false
}
