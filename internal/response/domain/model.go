// Package domain stores graded learning sessions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Response is one graded explanation: what the learner wrote and what the
// tutor made of it.
type Response struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID             int64        `gorm:"column:user_id" json:"user_id"`
	Concept            string       `gorm:"column:concept" json:"concept"`
	LearnerInput       string       `gorm:"column:learner_input" json:"learner_input"`
	AIFeedback         string       `gorm:"column:ai_feedback" json:"ai_feedback"`
	UnderstandingScore float64      `gorm:"column:understanding_score" json:"understanding_score"`
	CreatedAt          time.Time    `json:"created_at"`
}

func (Response) TableName() string {
	return "responses"
}

// FreeDailyLimit is how many graded sessions a free account gets per day.
const FreeDailyLimit = 5
