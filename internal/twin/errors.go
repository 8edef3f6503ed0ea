package twin

import "fmt"

// Kind classifies engine failures.
type Kind int

const (
	// KindMissingOrMismatchedInput covers an empty table, a nil grid, a label array whose
	// length disagrees with the dimensions, or labels that do not index the table.
	KindMissingOrMismatchedInput Kind = iota + 1
	// KindInvalidConfiguration covers a negative or non-finite thickness fraction.
	KindInvalidConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindMissingOrMismatchedInput:
		return "MissingOrMismatchedInput"
	case KindInvalidConfiguration:
		return "InvalidConfiguration"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the structured failure returned by Engine.Insert.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("twin: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("twin: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Msg == ""
}

var (
	ErrMissingOrMismatchedInput = &Error{Kind: KindMissingOrMismatchedInput}
	ErrInvalidConfiguration     = &Error{Kind: KindInvalidConfiguration}
)

func inputError(err error, format string, args ...any) *Error {
	return &Error{Kind: KindMissingOrMismatchedInput, Msg: fmt.Sprintf(format, args...), Err: err}
}

func configError(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidConfiguration, Msg: fmt.Sprintf(format, args...)}
}
