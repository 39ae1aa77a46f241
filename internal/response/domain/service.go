package domain

import (
	"context"

	authdomain "github.com/elimisha-app/elimisha/internal/auth/domain"
	progressdomain "github.com/elimisha-app/elimisha/internal/progress/domain"
)

type SubmitRequest struct {
	User         *authdomain.User
	Concept      string
	LearnerInput string
}

// SubmitResult pairs the stored session with the progress row it advanced.
type SubmitResult struct {
	Response *Response                `json:"response"`
	Progress *progressdomain.Progress `json:"progress"`
}

// Usage is the day's quota position for an account.
type Usage struct {
	UsedToday int  `json:"requests_used_today"`
	Limit     int  `json:"requests_limit"`
	Remaining int  `json:"requests_remaining"`
	Unlimited bool `json:"unlimited"`
}

type Service interface {
	// Submit grades an explanation, stores it and advances per-topic
	// progress. Free accounts are held to FreeDailyLimit per day.
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)

	History(ctx context.Context, userID int64, limit int) ([]Response, error)

	UsageFor(ctx context.Context, user *authdomain.User) (*Usage, error)
}
