package config

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error code constants.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E003" // Document exists but could not be read
	ErrCodeLoadFailed  = "E004" // Document not parseable
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // Schema validation or decoding failed
	ErrCodeWriteFailed = "E007" // File write error

	ErrCodeInvalidRule    = "E120" // Crop descriptor rejected
	ErrCodeInvalidSetting = "E121" // Scalar setting rejected
	ErrCodeUnknownHandler = "E122" // Handler name not registered
)

// LoadError is a ConfigLoadFailure: the document could not be read, parsed
// or validated.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// PersistError is a ConfigPersistFailure: the default document could not be
// written back.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s: write %s: %v", ErrCodeWriteFailed, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err is (or wraps) a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// IsNotFound reports whether err is a LoadError for a missing document.
func IsNotFound(err error) bool {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code == ErrCodeNotFound
	}
	return false
}

// IsReadError reports whether err is a LoadError for a document that exists
// but could not be read (permissions, a directory at the path).
func IsReadError(err error) bool {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code == ErrCodeReadFailed
	}
	return false
}

// IsPersistError reports whether err is (or wraps) a PersistError.
func IsPersistError(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}

// fromCUE converts a CUE error into a LoadError carrying the first position.
func fromCUE(code string, err error) *LoadError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error(), Err: err}
	}

	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error(), Err: err}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
