package repository

import (
	"context"
	"time"

	"github.com/elimisha-app/elimisha/internal/analytics/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

type dailyRow struct {
	Day      string
	AvgScore float64
	Count    int
}

func (r *repo) DailyScores(ctx context.Context, userID int64, since time.Time) ([]domain.DailyScore, error) {
	var rows []dailyRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT DATE(created_at) AS day,
		       AVG(understanding_score) AS avg_score,
		       COUNT(id) AS count
		FROM responses
		WHERE user_id = ? AND created_at >= ?
		GROUP BY DATE(created_at)
		ORDER BY day`, userID, since).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDailyScores(rows), nil
}

func (r *repo) DailyCounts(ctx context.Context, userID int64, since time.Time) ([]domain.DailyScore, error) {
	var rows []dailyRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT DATE(created_at) AS day,
		       COUNT(id) AS count
		FROM responses
		WHERE user_id = ? AND created_at >= ?
		GROUP BY DATE(created_at)
		ORDER BY day`, userID, since).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDailyScores(rows), nil
}

func (r *repo) ActivityDates(ctx context.Context, userID int64) ([]time.Time, error) {
	var days []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT DATE(created_at) AS day
		FROM responses
		WHERE user_id = ?
		ORDER BY day DESC`, userID).Scan(&days).Error
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, len(days))
	for _, day := range days {
		d, perr := parseDay(day)
		if perr != nil {
			return nil, perr
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func (r *repo) SessionTimes(ctx context.Context, userID int64) ([]time.Time, error) {
	var times []time.Time
	err := r.db.WithContext(ctx).Raw(`
		SELECT created_at
		FROM responses
		WHERE user_id = ?
		ORDER BY created_at`, userID).Scan(&times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}

func toDailyScores(rows []dailyRow) []domain.DailyScore {
	out := make([]domain.DailyScore, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.DailyScore{
			Date:     normalizeDay(row.Day),
			AvgScore: row.AvgScore,
			Count:    row.Count,
		})
	}
	return out
}

// normalizeDay trims DATE() output to YYYY-MM-DD across dialects.
func normalizeDay(day string) string {
	if len(day) > 10 {
		return day[:10]
	}
	return day
}

func parseDay(day string) (time.Time, error) {
	return time.Parse("2006-01-02", normalizeDay(day))
}
