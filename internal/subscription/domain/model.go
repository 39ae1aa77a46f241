package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Plan names. Every user has exactly one subscription row; free users get
// theirs provisioned on first read.
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// Payment status of the subscription itself, distinct from the lifecycle of
// individual payment attempts.
const (
	PaymentStatusActive    = "active"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusExpired   = "expired"
)

type Subscription struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID        int64        `gorm:"column:user_id" json:"user_id"`
	Plan          string       `gorm:"column:plan" json:"plan"`
	PaymentStatus string       `gorm:"column:payment_status" json:"payment_status"`
	StartDate     time.Time    `gorm:"column:start_date" json:"start_date"`
	EndDate       *time.Time   `gorm:"column:end_date" json:"end_date,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Active reports whether the subscription grants premium access at t.
func (s *Subscription) Active(t time.Time) bool {
	if s.Plan != PlanPremium {
		return false
	}
	return s.EndDate == nil || s.EndDate.After(t)
}
