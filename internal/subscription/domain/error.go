package domain

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNotPremium           = errors.New("subscription is not premium")
)
