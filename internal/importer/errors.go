package importer

import (
	"errors"
	"fmt"

	"github.com/Veraticus/the-ledger-must-balance/internal/model"
)

// Importer errors.
var (
	ErrUnsupportedFormat   = errors.New("unsupported file format")
	ErrNoTransactionsFound = errors.New("no transactions found")
	ErrEmptyFile           = errors.New("file has no header row")
)

// DecodeError reports a file that could not be opened or understood. It
// aborts the whole import.
type DecodeError struct {
	Err    error
	Format Format
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s decode failed: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeError(format Format, err error) error {
	return &DecodeError{Format: format, Err: err}
}

// RowError reports a row that was skipped. Rows are numbered from 1,
// excluding the header.
type RowError struct {
	Err   error
	Field model.Field
	Row   int
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: %s: %v", e.Row, e.Field, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
