package processing

import (
	"errors"
	"fmt"
)

// Stable machine-readable codes on retryable failures, distinguishing an
// infrastructure outage from a handler defect in alerting.
const (
	ErrCodeHandlerFailure       = "handler-failure"
	ErrCodeTransportUnavailable = "transport-unavailable"
)

// TransientError marks a failure the transport should retry by
// redelivering the message. It is the only error kind Process returns:
// every non-retryable outcome is dead-lettered and swallowed.
type TransientError struct {
	Code string
	Err  error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retryable processing failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
