package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	FindByUserID(ctx context.Context, userID int64) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error

	// Transactional variants used while a payment confirmation is in flight.
	FindByUserIDTx(ctx context.Context, tx *gorm.DB, userID int64) (*Subscription, error)
	SaveTx(ctx context.Context, tx *gorm.DB, sub *Subscription) error
}
