// Package errors defines the error taxonomy shared across RefTax. Typed
// errors carry context (resource, field, path, line) and unwrap to a
// sentinel, so callers can match with errors.Is without losing detail.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or a validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownCode indicates an unrecognized nomenclature code name.
	ErrUnknownCode = errors.New("unknown nomenclature code")
	// ErrInternal indicates an internal system error.
	ErrInternal = errors.New("internal error")
	// ErrUnsupported indicates an unsupported operation or format.
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError reports a missing resource, such as a sequence, rank
// group, or snapshot run.
type NotFoundError struct {
	Resource string
	ID       string
	Err      error
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Unwrap yields the wrapped error, or ErrNotFound when none was set.
func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError reports input that failed a validation rule. Value may
// be redacted when the input is sensitive or oversized.
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnknownCodeError reports an attempt to build a rank table for a
// nomenclature code that is not registered.
type UnknownCodeError struct {
	Code string
	Err  error
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown nomenclature code: %q", e.Code)
}

func (e *UnknownCodeError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnknownCode
}

// IOError reports a failed I/O operation against a file or resource.
type IOError struct {
	Operation string // "read", "write", "open", ...
	Path      string
	Err       error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError reports malformed input in a named format. Line is 1-based
// and zero when no line position applies.
type ParseError struct {
	Format  string // "taxonomy", "FASTA", "Newick", ...
	Path    string
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("failed to parse %s at %s:%d: %s", e.Format, e.Path, e.Line, e.Message)
	case e.Path != "":
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	default:
		return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
	}
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// UnsupportedError reports a feature or format outside what RefTax
// implements.
type UnsupportedError struct {
	Feature string
	Reason  string
	Err     error
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// NewNotFound creates a NotFoundError for the given resource and ID.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewValidation creates a ValidationError for a named field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewUnknownCode creates an UnknownCodeError.
func NewUnknownCode(code string) *UnknownCodeError {
	return &UnknownCodeError{Code: code}
}

// NewIO creates an IOError wrapping err.
func NewIO(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// NewParse creates a ParseError without a line position.
func NewParse(format, path, message string) *ParseError {
	return &ParseError{Format: format, Path: path, Message: message}
}

// NewParseLine creates a ParseError carrying a 1-based line number.
func NewParseLine(format, path string, line int, message string) *ParseError {
	return &ParseError{Format: format, Path: path, Line: line, Message: message}
}

// NewUnsupported creates an UnsupportedError.
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{Feature: feature, Reason: reason}
}

// Wrap adds context to an error. A nil err passes through as nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. A nil err passes through as nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain matching target's type.
func As(err error, target any) bool { return errors.As(err, target) }
