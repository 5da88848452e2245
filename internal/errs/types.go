package errs

import "time"

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

type NotFoundError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

// ExternalServiceError wraps a failure from one of the remote collaborators.
// Transient failures may be worth retrying by whoever owns the call.
type ExternalServiceError struct {
	ErrorMessage
	Service   string
	Transient bool
}

// RateLimitedError is the budgeting backend's throttle response; RetryAfter
// is the cool-down the backend asked for.
type RateLimitedError struct {
	ErrorMessage
	RetryAfter time.Duration
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewExternalServiceError(service, message string, transient bool) *ExternalServiceError {
	return &ExternalServiceError{
		ErrorMessage: ErrorMessage{Message: message},
		Service:      service,
		Transient:    transient,
	}
}

func NewRateLimitedError(retryAfter time.Duration) *RateLimitedError {
	return &RateLimitedError{
		ErrorMessage: ErrorMessage{Message: "rate limited"},
		RetryAfter:   retryAfter,
	}
}
