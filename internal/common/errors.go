package common

import "errors"

// ErrorKind buckets failures by how the transport layer should treat
// them.
type ErrorKind string

const (
	KindInputValidation ErrorKind = "INPUT_VALIDATION"
	KindCouponRejected  ErrorKind = "COUPON_REJECTED"
	KindStateViolation  ErrorKind = "STATE_VIOLATION"
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindInternal        ErrorKind = "INTERNAL"
)

// AppError carries a machine-readable code and an HTTP status alongside
// the wrapped cause, so handlers render it without type switches.
type AppError struct {
	Kind       ErrorKind
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError assembles an AppError in one call.
func NewAppError(kind ErrorKind, code, message string, status int, err error) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: status,
		Err:        err,
	}
}

// IsAppError reports whether err wraps an AppError anywhere in its chain.
func IsAppError(err error) bool {
	var app *AppError
	return errors.As(err, &app)
}
