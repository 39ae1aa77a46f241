package domain

import "errors"

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrInvalidPlan     = errors.New("unknown subscription plan")
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrInvalidAmount   = errors.New("invalid payment amount")

	// ErrGatewayUnavailable wraps transient gateway faults. Callers may retry
	// the same operation; no payment state was changed.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)
