// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEntry    = errors.New("duplicate entry")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Ledger errors.
	ErrNoAccounts = errors.New("no active accounts")

	// Ingestion errors.
	ErrFieldUnparseable = errors.New("field could not be parsed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ReferenceError reports an operation that named a record which does not exist.
type ReferenceError struct {
	Entity string
	ID     int64
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Unwrap lets callers match reference errors with errors.Is(err, ErrNotFound).
func (e *ReferenceError) Unwrap() error {
	return ErrNotFound
}

// NewReferenceError creates a reference error for the given entity and id.
func NewReferenceError(entity string, id int64) error {
	return &ReferenceError{Entity: entity, ID: id}
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
