// Package errs classifies errors into the seven kinds spec.md §7 defines,
// grounded on the teacher's OrchestratorError/OrchestratorErrorKind pattern
// (internal/application/orchestrator.go).
package errs

import "errors"

// Kind is one of the seven error-handling categories from spec.md §7.
type Kind string

const (
	KindInputValidation     Kind = "input_validation"
	KindMissingPrerequisite Kind = "missing_prerequisite"
	KindTransientExternal   Kind = "transient"
	KindPermanentExternal   Kind = "permanent"
	KindDataShape           Kind = "data_shape"
	KindConcurrency         Kind = "concurrency"
	KindFatal               Kind = "fatal"
)

// Sentinel errors for errors.Is matching independent of Kind/message.
var (
	ErrInputValidation     = errors.New("input validation error")
	ErrMissingPrerequisite = errors.New("missing prerequisite")
	ErrTransientExternal   = errors.New("transient external-service error")
	ErrPermanentExternal   = errors.New("permanent external-service error")
	ErrDataShape           = errors.New("unexpected data shape")
	ErrConcurrentDuplicate = errors.New("duplicate in-flight operation")
	ErrFatal               = errors.New("fatal error")
)

var sentinelByKind = map[Kind]error{
	KindInputValidation:     ErrInputValidation,
	KindMissingPrerequisite: ErrMissingPrerequisite,
	KindTransientExternal:   ErrTransientExternal,
	KindPermanentExternal:   ErrPermanentExternal,
	KindDataShape:           ErrDataShape,
	KindConcurrency:         ErrConcurrentDuplicate,
	KindFatal:               ErrFatal,
}

// ClassifiedError wraps an underlying error with its Kind, so callers can
// errors.Is against both the sentinel for the kind and the original cause.
type ClassifiedError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *ClassifiedError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + string(e.Kind)
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, errs.ErrTransientExternal) succeed for any
// ClassifiedError of that kind, even when Err is a different concrete error.
func (e *ClassifiedError) Is(target error) bool {
	if sentinel, ok := sentinelByKind[e.Kind]; ok && target == sentinel {
		return true
	}
	return false
}

// New constructs a ClassifiedError.
func New(kind Kind, op string, cause error) *ClassifiedError {
	return &ClassifiedError{Kind: kind, Op: op, Err: cause}
}

// KindOf extracts the Kind of err if it (or something it wraps) is a
// ClassifiedError, else "" and false.
func KindOf(err error) (Kind, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}
