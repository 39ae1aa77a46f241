package domain

import (
	"context"

	"gorm.io/gorm"
)

// InitiateRequest starts a payment for a subscription plan.
type InitiateRequest struct {
	UserID int64
	Phone  string
	Plan   string
}

type Service interface {
	// Initiate normalizes the phone number, prices the plan and sends the STK
	// push. The returned record is PENDING.
	Initiate(ctx context.Context, req InitiateRequest) (*PaymentRecord, error)

	// HandleCallback ingests a raw gateway callback. It returns an error only
	// for malformed payloads; reports for unknown attempts are dropped, and
	// repeated deliveries are no-ops.
	HandleCallback(ctx context.Context, payload []byte) error

	// CheckStatus returns the current state of the user's payment attempt,
	// querying the gateway first when the record is still PENDING.
	CheckStatus(ctx context.Context, userID int64, checkoutRequestID string) (*PaymentRecord, error)

	// ApplyStatus folds one status observation into the record identified by
	// checkoutRequestID and returns the record as stored afterwards. It is
	// safe to call concurrently from every confirmation path.
	ApplyStatus(ctx context.Context, checkoutRequestID string, report StatusReport) (*PaymentRecord, error)
}

// SubscriptionActivator grants premium access inside the payment's
// confirmation transaction, so activation and the status flip commit or roll
// back together.
type SubscriptionActivator interface {
	ActivateTx(ctx context.Context, tx *gorm.DB, userID int64, months int) error
}
