// Package domain tracks per-topic mastery.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Progress is the running per-topic average for one user. One row per
// user and topic.
type Progress struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID        int64        `gorm:"column:user_id" json:"user_id"`
	Topic         string       `gorm:"column:topic" json:"topic"`
	TotalSessions int          `gorm:"column:total_sessions" json:"total_sessions"`
	AverageScore  float64      `gorm:"column:average_score" json:"average_score"`
	LastSessionAt time.Time    `gorm:"column:last_session_at" json:"last_session_at"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (Progress) TableName() string {
	return "progress"
}

// Record folds a new session score into the running average.
func (p *Progress) Record(score float64, at time.Time) {
	p.AverageScore = (p.AverageScore*float64(p.TotalSessions) + score) / float64(p.TotalSessions+1)
	p.TotalSessions++
	p.LastSessionAt = at
	p.UpdatedAt = at
}

// WeakThreshold marks topics that need revision.
const WeakThreshold = 0.5

func (p *Progress) IsWeak() bool {
	return p.AverageScore < WeakThreshold
}
