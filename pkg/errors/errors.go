// Package errors provides custom error types for the respawn pipeline.
// These errors enable programmatic error checking with errors.Is / errors.As
// and carry enough context (dataset, column, key) to be reported in the
// merge summary without string parsing.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New is errors.New.
var New = errors.New

// Is, As and Join are re-exported so callers only import one errors package.
var (
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingKey marks a source without its key column.
	ErrMissingKey = errors.New("missing key column")
	// ErrDuplicateKey marks a key repeated within one source.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrSchemaMismatch marks a shared column with incompatible kinds.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrNoUsableSources means every source was rejected.
	ErrNoUsableSources = errors.New("no usable sources")
)

// MissingKeyError reports a source that lacks a required key column.
type MissingKeyError struct {
	Dataset string
	Column  string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("dataset %s: required key column %q is missing", e.Dataset, e.Column)
}

func (e *MissingKeyError) Is(target error) bool {
	return target == ErrMissingKey
}

func NewMissingKeyError(dataset, column string) *MissingKeyError {
	return &MissingKeyError{Dataset: dataset, Column: column}
}

// DuplicateKeyError reports a key value that occurs more than once in one source.
type DuplicateKeyError struct {
	Dataset string
	Column  string
	Key     string
	Rows    []int // zero-based row positions that share the key
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("dataset %s: %s %q appears %d times (rows %v)",
		e.Dataset, e.Column, e.Key, len(e.Rows), e.Rows)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

func NewDuplicateKeyError(dataset, column, key string, rows []int) *DuplicateKeyError {
	return &DuplicateKeyError{Dataset: dataset, Column: column, Key: key, Rows: rows}
}

// SchemaMismatchError reports a column whose type cannot be reconciled.
// Expected and Actual hold kind names; Row is set (>= 0) when a single cell
// failed to parse at load time.
type SchemaMismatchError struct {
	Dataset  string
	Column   string
	Expected string
	Actual   string
	Row      int
	Message  string
}

func (e *SchemaMismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "dataset %s: column %q", e.Dataset, e.Column)
	if e.Expected != "" || e.Actual != "" {
		fmt.Fprintf(&b, " expected %s, got %s", e.Expected, e.Actual)
	}
	if e.Row >= 0 {
		fmt.Fprintf(&b, " at row %d", e.Row)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	return b.String()
}

func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// NewSchemaMismatchError creates a SchemaMismatchError that is not tied to a row.
func NewSchemaMismatchError(dataset, column, expected, actual string) *SchemaMismatchError {
	return &SchemaMismatchError{
		Dataset:  dataset,
		Column:   column,
		Expected: expected,
		Actual:   actual,
		Row:      -1,
	}
}

// ValidationError reports a bad option, flag or config value.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// NotFoundError reports a missing file, directory or declared source.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConfigError reports an unreadable or invalid config file.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// MergeError represents a failure of the merge as a whole
type MergeError struct {
	Target   string   // output dataset being built, empty for the whole run
	Rejected []string // sources rejected before the failure
	Err      error
}

func (e *MergeError) Error() string {
	target := e.Target
	if target == "" {
		target = "all outputs"
	}
	if len(e.Rejected) > 0 {
		return fmt.Sprintf("merge of %s failed (rejected sources: %s): %v",
			target, strings.Join(e.Rejected, ", "), e.Err)
	}
	return fmt.Sprintf("merge of %s failed: %v", target, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

func NewMergeError(target string, rejected []string, err error) *MergeError {
	return &MergeError{
		Target:   target,
		Rejected: rejected,
		Err:      err,
	}
}

// ParseError reports malformed CSV or YAML input.
type ParseError struct {
	Format  string // "csv", "yaml", ...
	File    string
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError reports a failed filesystem operation on path.
type IOError struct {
	Operation string // "read", "write", "create", "open", "close"
	Path      string
	Message   string
	Err       error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError reports a failed operation on a sink, engine or database.
type ResourceError struct {
	Operation string // "load", "clean", "merge", "export"
	Resource  string // "dataset", "config", "database"
	ID        string
	Message   string
	Err       error
}

func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsMissingKey checks if an error is a missing key error
func IsMissingKey(err error) bool {
	return errors.Is(err, ErrMissingKey)
}

// IsDuplicateKey checks if an error is a duplicate key error
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// IsSchemaMismatch checks if an error is a schema mismatch error
func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

// IsSourceFailure reports whether err is one of the per-source terminal
// failures that reject a source without aborting the run.
func IsSourceFailure(err error) bool {
	return IsMissingKey(err) || IsDuplicateKey(err) || IsSchemaMismatch(err)
}

// Kind returns a short machine-friendly name for the error taxonomy.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsMissingKey(err):
		return "MissingKeyError"
	case IsDuplicateKey(err):
		return "DuplicateKeyError"
	case IsSchemaMismatch(err):
		return "SchemaMismatchError"
	case IsValidationError(err):
		return "ValidationError"
	case IsNotFound(err):
		return "NotFoundError"
	default:
		var ioErr *IOError
		if errors.As(err, &ioErr) {
			return "IOError"
		}
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			return "ParseError"
		}
		return "Error"
	}
}

// WrapIO returns nil for a nil err, otherwise an IOError.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource returns nil for a nil err, otherwise a ResourceError.
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse returns nil for a nil err, otherwise a ParseError.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
