package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a data error
type Kind string

const (
	// KindLoad means a source could not be read at all
	KindLoad Kind = "load"
	// KindSchema means an expected column is absent
	KindSchema Kind = "schema"
)

// DataError describes a failure tied to one source table
type DataError struct {
	Kind    Kind   `json:"kind"`
	Source  string `json:"source"`
	Path    string `json:"path,omitempty"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *DataError) Error() string {
	if e == nil {
		return "unknown data error"
	}

	msg := fmt.Sprintf("[%s] %s: %s", e.Kind, e.Source, e.Message)
	if e.Column != "" {
		msg += fmt.Sprintf(" (column %q)", e.Column)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *DataError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewLoadError wraps a failure to open or read a source file
func NewLoadError(source, path string, cause error) *DataError {
	return &DataError{
		Kind:    KindLoad,
		Source:  source,
		Path:    path,
		Message: fmt.Sprintf("failed to load %s", path),
		Cause:   cause,
	}
}

// NewSchemaError reports a required column missing from a source
func NewSchemaError(source, column string) *DataError {
	return &DataError{
		Kind:    KindSchema,
		Source:  source,
		Column:  column,
		Message: "required column missing",
	}
}

// As returns the first DataError in err's chain
func As(err error) (*DataError, bool) {
	var de *DataError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsKind checks whether any DataError in err's chain has the given kind
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var de *DataError
		if !stderrors.As(err, &de) {
			return false
		}
		if de.Kind == kind {
			return true
		}
		err = de.Cause
	}
	return false
}

// IsSchema checks for a missing-column error anywhere in the chain
func IsSchema(err error) bool {
	return IsKind(err, KindSchema)
}

// IsLoad checks for a load error anywhere in the chain
func IsLoad(err error) bool {
	return IsKind(err, KindLoad)
}
