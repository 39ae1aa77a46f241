// Package domain holds the payment attempt model and its status lifecycle.
//
// A payment attempt starts PENDING and settles into exactly one terminal
// status, no matter how many confirmation paths (gateway callback, status
// poll, operator backfill) race to report it.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the lifecycle state of a payment attempt.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusTimedOut  Status = "TIMED_OUT"
	StatusFailed    Status = "FAILED"
)

// Terminal reports whether the status is final. Terminal records never
// change again.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusTimedOut, StatusFailed:
		return true
	}
	return false
}

// Gateway result codes with a dedicated terminal status. Any other non-nil
// code is a generic failure.
const (
	resultCodeSuccess   = "0"
	resultCodeCancelled = "1032"
	resultCodeTimeout   = "1037"
)

// StatusFromResultCode maps a gateway result code to a payment status. A nil
// code means the gateway has not settled the attempt, which keeps it PENDING.
// This is the only place result codes are interpreted.
func StatusFromResultCode(code *string) Status {
	if code == nil {
		return StatusPending
	}
	switch *code {
	case resultCodeSuccess:
		return StatusCompleted
	case resultCodeCancelled:
		return StatusCancelled
	case resultCodeTimeout:
		return StatusTimedOut
	default:
		return StatusFailed
	}
}

// Message is the human-readable summary shown for a status.
func (s Status) Message() string {
	switch s {
	case StatusCompleted:
		return "Payment completed successfully"
	case StatusCancelled:
		return "Payment was cancelled"
	case StatusTimedOut:
		return "Payment request timed out"
	case StatusFailed:
		return "Payment failed"
	default:
		return "Payment is still being processed"
	}
}

// PaymentRecord is one STK push attempt. CheckoutRequestID is the gateway's
// correlation id and the unique handle every status report carries.
type PaymentRecord struct {
	ID                    snowflake.ID   `gorm:"primaryKey" json:"id"`
	UserID                int64          `gorm:"column:user_id" json:"user_id"`
	CheckoutRequestID     string         `gorm:"column:checkout_request_id;uniqueIndex:ux_payments_checkout_request_id" json:"checkout_request_id"`
	MerchantRequestID     string         `gorm:"column:merchant_request_id" json:"merchant_request_id,omitempty"`
	Amount                int64          `gorm:"column:amount" json:"amount"`
	Plan                  string         `gorm:"column:plan" json:"plan"`
	PhoneNumber           string         `gorm:"column:phone_number" json:"phone_number"`
	Status                Status         `gorm:"column:status" json:"status"`
	ResultCode            *string        `gorm:"column:result_code" json:"result_code,omitempty"`
	ResultDesc            string         `gorm:"column:result_desc" json:"result_desc,omitempty"`
	ReceiptNumber         string         `gorm:"column:receipt_number" json:"receipt_number,omitempty"`
	SubscriptionActivated bool           `gorm:"column:subscription_activated" json:"subscription_activated"`
	CallbackPayload       datatypes.JSON `gorm:"column:callback_payload" json:"-"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	CompletedAt           *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
}

func (PaymentRecord) TableName() string {
	return "payments"
}

// StatusReport is a normalized status observation from any confirmation
// path. A nil ResultCode carries no verdict.
type StatusReport struct {
	ResultCode *string
	ResultDesc string
	Amount     *int64
	Receipt    string
	Raw        []byte
}
