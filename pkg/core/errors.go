package core

// Error is a coded runtime error.
// Code is stable and meant for programmatic checks, Message is human readable.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors by code so callers can compare against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

var (
	ErrBusClosed      = &Error{Code: "BUS_CLOSED", Message: "event bus is closed"}
	ErrAlreadyStarted = &Error{Code: "ALREADY_STARTED", Message: "already started"}
	ErrNotStarted     = &Error{Code: "NOT_STARTED", Message: "not started"}
)
