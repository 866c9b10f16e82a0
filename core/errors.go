package core

import (
	"strconv"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// UpstreamError is returned when the APSAS API could not be reached or answered with an error.
type UpstreamError struct {
	Resource   string
	StatusCode int
	Err        error
}

func (err *UpstreamError) Error() string {
	if err.Err != nil {
		return "fetching " + err.Resource + ": " + err.Err.Error()
	}
	return "fetching " + err.Resource + ": unexpected status " + strconv.Itoa(err.StatusCode)
}

func IsUpstream(err error) bool {
	_, ok := errors.Cause(err).(*UpstreamError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
