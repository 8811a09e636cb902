package billing

import "fmt"

// Kind is the machine-readable classification of a billing failure.
// Clients branch on Kind; Message is for humans.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindInvalidState    Kind = "invalid_state"
	KindExpired         Kind = "expired"
	KindLimitExceeded   Kind = "limit_exceeded"
	KindUnauthenticated Kind = "unauthenticated"
	KindValidation      Kind = "validation_failed"
	KindConflict        Kind = "conflict"
	KindTransient       Kind = "transient"
)

// Error carries a Kind plus whatever context the client needs to decide
// whether to retry, upgrade the plan, or fix the request.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the caller may retry the whole operation.
// Conflicts mean another run claimed the template; transient means the
// store hiccuped. Everything else is a definitive business answer.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransient || e.Kind == KindConflict
}

func NewNotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func NewInvalidState(what, current string) *Error {
	return &Error{
		Kind:    KindInvalidState,
		Message: fmt.Sprintf("%s is %s", what, current),
		Details: map[string]any{"status": current},
	}
}

func NewExpired(msg string) *Error {
	return &Error{Kind: KindExpired, Message: msg}
}

func NewLimitExceeded(resource string, used, limit int) *Error {
	return &Error{
		Kind:    KindLimitExceeded,
		Message: fmt.Sprintf("%s limit reached (%d of %d used)", resource, used, limit),
		Details: map[string]any{"resource": resource, "used": used, "limit": limit},
	}
}

func NewValidation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NewConflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func NewTransient(msg string, err error) *Error {
	return &Error{Kind: KindTransient, Message: msg, Err: err}
}

// AsError unwraps err into a *Error if it is one.
func AsError(err error) (*Error, bool) {
	be, ok := err.(*Error)
	return be, ok
}
