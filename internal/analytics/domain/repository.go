package domain

import (
	"context"
	"time"
)

// DailyScore is a per-day aggregate over graded sessions.
type DailyScore struct {
	Date     string
	AvgScore float64
	Count    int
}

type Repository interface {
	DailyScores(ctx context.Context, userID int64, since time.Time) ([]DailyScore, error)

	// ActivityDates lists distinct days with at least one session, newest
	// first.
	ActivityDates(ctx context.Context, userID int64) ([]time.Time, error)

	DailyCounts(ctx context.Context, userID int64, since time.Time) ([]DailyScore, error)

	SessionTimes(ctx context.Context, userID int64) ([]time.Time, error)
}
