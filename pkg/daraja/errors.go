package daraja

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth means the gateway access token could not be obtained.
	ErrAuth = errors.New("daraja: authentication failed")

	// ErrTimeout means the outbound call exceeded its deadline. Callers treat
	// this as retryable; it never maps to a payment status.
	ErrTimeout = errors.New("daraja: request timed out")
)

// RequestError is a rejection returned by the gateway itself, e.g. an STK
// push declined at initiation time.
type RequestError struct {
	Code        string
	Description string
}

func (e *RequestError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("daraja: request rejected: %s", e.Description)
	}
	return fmt.Sprintf("daraja: request rejected (%s): %s", e.Code, e.Description)
}
