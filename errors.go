package ospfs

import (
	"errors"
	"fmt"
)

// DriverError is the error type returned by every core operation. It wraps a
// sentinel error kind with an optional human-readable message and/or a nested
// cause, while still satisfying errors.Is against the sentinel it originated
// from.
type DriverError interface {
	error
	// WithMessage returns a new DriverError carrying the same sentinel kind
	// but with additional context appended to the message.
	WithMessage(message string) DriverError
	// Wrap returns a new DriverError that also satisfies errors.Is against
	// both the sentinel kind and err.
	Wrap(err error) DriverError
}

// DiskoError is a sentinel error kind, one per condition callers need to
// distinguish, plus a handful of ambient kinds the surrounding
// image/bitmap/format layers need.
type DiskoError string

func (e DiskoError) Error() string {
	return string(e)
}

func (e DiskoError) WithMessage(message string) DriverError {
	return &customError{message: fmt.Sprintf("%s: %s", string(e), message), kind: e}
}

func (e DiskoError) Wrap(err error) DriverError {
	return &customError{
		message: fmt.Sprintf("%s: %s", string(e), err.Error()),
		kind:    e,
		cause:   err,
	}
}

// customError is the concrete type behind WithMessage/Wrap, letting a chain
// of annotations still resolve back to its original sentinel kind and cause.
type customError struct {
	message string
	kind    DiskoError
	cause   error
}

func (e *customError) Error() string {
	return e.message
}

func (e *customError) WithMessage(message string) DriverError {
	return &customError{
		message: fmt.Sprintf("%s: %s", e.message, message),
		kind:    e.kind,
		cause:   e,
	}
}

func (e *customError) Wrap(err error) DriverError {
	return &customError{
		message: fmt.Sprintf("%s: %s", e.message, err.Error()),
		kind:    e.kind,
		cause:   err,
	}
}

// Is lets errors.Is(err, ospfs.ErrXxx) succeed regardless of how many times
// the error has been annotated, and lets the original cause passed to Wrap
// still be matched against.
func (e *customError) Is(target error) bool {
	if e.kind != "" && errors.Is(e.kind, target) {
		return true
	}
	if e.cause != nil && errors.Is(e.cause, target) {
		return true
	}
	return false
}

func (e *customError) Unwrap() error {
	return e.cause
}

// CastToDriverError converts a plain error (e.g. from encoding/binary or a
// slice-bounds helper) into a DriverError, leaving an existing DriverError
// untouched and mapping nil to nil.
func CastToDriverError(err error) DriverError {
	if err == nil {
		return nil
	}
	if driverErr, ok := err.(DriverError); ok {
		return driverErr
	}
	return ErrIOFailed.Wrap(err)
}

// Sentinel error kinds. Every operation returns one of these, typically
// via WithMessage/Wrap for additional context.
const (
	ErrNotFound         = DiskoError("no such file or directory")
	ErrExists           = DiskoError("file exists")
	ErrNameTooLong      = DiskoError("file name too long")
	ErrNoSpaceOnDevice  = DiskoError("no space left on device")
	ErrIOFailed         = DiskoError("input/output error")
	ErrPermissionDenied = DiskoError("operation not permitted")
	ErrNoMemory         = DiskoError("cannot allocate memory")
	ErrTooManyLinks     = DiskoError("too many links")

	// Ambient sentinels that sit below the public operation boundary
	// (image validation, CLI path walking).
	ErrArgumentOutOfRange  = DiskoError("numerical argument out of domain")
	ErrInvalidArgument     = DiskoError("invalid argument")
	ErrFileSystemCorrupted = DiskoError("structure needs cleaning")
	ErrNotADirectory       = DiskoError("not a directory")
	ErrIsADirectory        = DiskoError("is a directory")
	ErrLinkCycleDetected   = DiskoError("too many levels of symbolic links")
)
