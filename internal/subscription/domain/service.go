package domain

import (
	"context"

	"gorm.io/gorm"
)

type Service interface {
	// CurrentForUser returns the user's subscription, provisioning a free one
	// when none exists and downgrading a premium one whose window has lapsed.
	CurrentForUser(ctx context.Context, userID int64) (*Subscription, error)

	// ActivateTx upgrades the user to premium for the given number of months,
	// inside the caller's transaction. The caller owns commit and rollback.
	ActivateTx(ctx context.Context, tx *gorm.DB, userID int64, months int) error

	// Cancel stops renewal. Premium access survives until the end date.
	Cancel(ctx context.Context, userID int64) (*Subscription, error)
}
