package domain

import "errors"

var (
	ErrMissingFields = errors.New("concept and learner input are required")

	// ErrQuotaExceeded means a free account used up today's graded sessions.
	ErrQuotaExceeded = errors.New("daily feedback limit reached")
)
