package diag

import (
	"errors"
	"fmt"

	"argon/internal/source"
)

// Error is a failure raised by staging or rewriting. It is never recovered
// locally; it propagates to the top of the capture.
type Error struct {
	Code    Code
	Span    source.Span
	Message string
}

// Sentinels for errors.Is. Only the Code is compared.
var (
	// ErrNoState is the StagingError: staging code ran with no State installed.
	ErrNoState = &Error{Code: StgNoState}
	// ErrTypeMismatch is raised when two values that must unify have different staged types.
	ErrTypeMismatch = &Error{Code: StgTypeMismatch}
	// ErrUnsupported is raised at rewrite time for deliberately unsupported constructs.
	ErrUnsupported = &Error{Code: RwUnsupported}
	// ErrUndefined is raised by a lowering collaborator that demands an Undefined value.
	ErrUndefined = &Error{Code: EvalUndefined}
)

// Errorf builds an *Error.
func Errorf(code Code, span source.Span, format string, args ...any) *Error {
	return &Error{Code: code, Span: span, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.Title()
	}
	return e.Message
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// Diagnostic converts the error into an error-severity diagnostic.
func (e *Error) Diagnostic() Diagnostic {
	return New(SevError, e.Code, e.Span, e.Error())
}

// AsError extracts the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
