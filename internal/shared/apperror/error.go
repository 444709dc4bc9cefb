package apperror

import "fmt"

// AppError is the one error currency of the client. Code carries the
// taxonomy (SESSION_EXPIRED, NETWORK_UNAVAILABLE, ...), Message is safe to
// show a user, HTTPStatus is set only when the error came off the wire, and
// Err keeps the cause for errors.Is/As chains.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches on taxonomy code, so errors.Is against the sentinels in
// common.go holds for any error built with Wrap under the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code
}

// New builds a leaf AppError.
func New(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// Wrap attaches taxonomy to a cause. A nil cause yields nil so call sites
// can wrap unconditionally.
func Wrap(err error, code, message string, httpStatus int) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}
