package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, rec *PaymentRecord) error
	FindByCheckoutID(ctx context.Context, checkoutRequestID string) (*PaymentRecord, error)
	FindByUser(ctx context.Context, userID int64, limit int) ([]PaymentRecord, error)

	// FindByCheckoutIDForUpdate locks the row for the duration of tx so
	// concurrent confirmations serialize on it.
	FindByCheckoutIDForUpdate(ctx context.Context, tx *gorm.DB, checkoutRequestID string) (*PaymentRecord, error)
	SaveTx(ctx context.Context, tx *gorm.DB, rec *PaymentRecord) error
}
