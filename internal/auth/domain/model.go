// Package domain contains the account and session models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Tier is the account tier controlling feature access.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// User is a learner account.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Email        string       `gorm:"type:text;not null;uniqueIndex:ux_users_email"`
	PasswordHash string       `gorm:"type:text;not null"`
	Tier         Tier         `gorm:"type:text;not null;default:free"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }

func (u User) IsPremium() bool { return u.Tier == TierPremium }

// Session is an opaque server-side login session. Only a hash of the raw
// token is stored.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"not null;index"`
	TokenHash string       `gorm:"type:text;not null;uniqueIndex:ux_sessions_token_hash"`
	UserAgent string       `gorm:"type:text"`
	IPAddress string       `gorm:"type:text"`
	ExpiresAt time.Time    `gorm:"not null"`
	RevokedAt *time.Time   `gorm:""`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Session) TableName() string { return "sessions" }
