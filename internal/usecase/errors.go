package usecase

import "fmt"

// ErrorCode classifies task request failures for callers such as the CLI
// and the Lambda handler. ErrorMalformedResponse means the model answered,
// but not with the single JSON value the AI function asked for.
type ErrorCode string

const (
	ErrorInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrorRateLimited       ErrorCode = "RATE_LIMITED"
	ErrorUpstream          ErrorCode = "UPSTREAM_ERROR"
	ErrorMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrorInternal          ErrorCode = "INTERNAL_ERROR"
)

// Error is returned by TaskService once the retry budget is spent or the
// response cannot be decoded.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
