package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/elimisha-app/elimisha/internal/analytics/domain"
	progressdomain "github.com/elimisha-app/elimisha/internal/progress/domain"
	responsedomain "github.com/elimisha-app/elimisha/internal/response/domain"
	"go.uber.org/zap"
)

const (
	defaultTimelineDays = 30
	heatmapDays         = 90
)

type Service struct {
	log       *zap.Logger
	repo      domain.Repository
	progress  progressdomain.Service
	responses responsedomain.Repository
	now       func() time.Time
}

func New(
	log *zap.Logger,
	repo domain.Repository,
	progress progressdomain.Service,
	responses responsedomain.Repository,
) domain.Service {
	return &Service{
		log:       log.Named("analytics.service"),
		repo:      repo,
		progress:  progress,
		responses: responses,
		now:       time.Now,
	}
}

func (s *Service) Timeline(ctx context.Context, userID int64, days int) (*domain.Timeline, error) {
	if days <= 0 {
		days = defaultTimelineDays
	}
	since := s.now().UTC().AddDate(0, 0, -days)

	scores, err := s.repo.DailyScores(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	points := make([]domain.TimelinePoint, 0, len(scores))
	for _, d := range scores {
		points = append(points, domain.TimelinePoint{
			Date:     d.Date,
			Score:    roundPercent(d.AvgScore),
			Sessions: d.Count,
		})
	}
	return &domain.Timeline{
		Points: points,
		Period: fmt.Sprintf("Last %d days", days),
	}, nil
}

func (s *Service) TopicComparison(ctx context.Context, userID int64) (*domain.TopicComparison, error) {
	topics, err := s.progress.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := make([]domain.TopicStat, 0, len(topics))
	for _, t := range topics {
		stats = append(stats, domain.TopicStat{
			Topic:            t.Topic,
			AverageScore:     roundPercent(t.AverageScore),
			TotalSessions:    t.TotalSessions,
			LastPracticed:    t.LastSessionAt.Format(time.RFC3339),
			PerformanceLevel: performanceLevel(t.AverageScore),
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].AverageScore > stats[j].AverageScore
	})

	cmp := &domain.TopicComparison{Topics: stats}
	if len(stats) > 0 {
		cmp.Best = &stats[0]
		cmp.Worst = &stats[len(stats)-1]
	}
	return cmp, nil
}

func (s *Service) Streak(ctx context.Context, userID int64) (*domain.Streak, error) {
	dates, err := s.repo.ActivityDates(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return &domain.Streak{Message: streakMessage(0)}, nil
	}

	today := truncateDay(s.now().UTC())
	current := 0
	if sameDay(dates[0], today) || sameDay(dates[0], today.AddDate(0, 0, -1)) {
		current = 1
		for i := 0; i < len(dates)-1; i++ {
			if daysBetween(dates[i+1], dates[i]) == 1 {
				current++
			} else {
				break
			}
		}
	}

	longest := 1
	run := 1
	for i := 0; i < len(dates)-1; i++ {
		if daysBetween(dates[i+1], dates[i]) == 1 {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}

	return &domain.Streak{
		Current:      current,
		Longest:      longest,
		LastActivity: dates[0].Format("2006-01-02"),
		Message:      streakMessage(current),
	}, nil
}

func (s *Service) WeeklySummary(ctx context.Context, userID int64) (*domain.WeeklySummary, error) {
	now := s.now().UTC()
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)

	thisWeek, err := s.responses.ListByUserSince(ctx, userID, weekAgo, now)
	if err != nil {
		return nil, err
	}
	lastWeek, err := s.responses.ListByUserSince(ctx, userID, twoWeeksAgo, weekAgo)
	if err != nil {
		return nil, err
	}

	thisAvg := averageScore(thisWeek)
	lastAvg := averageScore(lastWeek)

	improvement := 0.0
	if lastAvg > 0 {
		improvement = round1((thisAvg - lastAvg) * 100)
	}
	trend := "stable"
	if improvement > 0 {
		trend = "up"
	} else if improvement < 0 {
		trend = "down"
	}

	topics := map[string]struct{}{}
	for _, r := range thisWeek {
		topics[r.Concept] = struct{}{}
	}

	return &domain.WeeklySummary{
		ThisWeek: domain.WeekStats{
			Sessions:      len(thisWeek),
			AverageScore:  roundPercent(thisAvg),
			TopicsCovered: len(topics),
		},
		LastWeek: domain.WeekStats{
			Sessions:     len(lastWeek),
			AverageScore: roundPercent(lastAvg),
		},
		Improvement: improvement,
		Trend:       trend,
	}, nil
}

func (s *Service) Heatmap(ctx context.Context, userID int64) (*domain.Heatmap, error) {
	since := s.now().UTC().AddDate(0, 0, -heatmapDays)
	counts, err := s.repo.DailyCounts(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	cells := make([]domain.HeatmapCell, 0, len(counts))
	for _, d := range counts {
		cells = append(cells, domain.HeatmapCell{
			Date:  d.Date,
			Count: d.Count,
			Level: activityLevel(d.Count),
		})
	}
	return &domain.Heatmap{
		Cells:  cells,
		Period: fmt.Sprintf("Last %d days", heatmapDays),
	}, nil
}

func (s *Service) TimePatterns(ctx context.Context, userID int64) (*domain.TimePatterns, error) {
	times, err := s.repo.SessionTimes(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(times) == 0 {
		return &domain.TimePatterns{
			Recommendation: "Keep building your routine!",
		}, nil
	}

	dayCounts := map[string]int{}
	hourCounts := map[int]int{}
	for _, at := range times {
		dayCounts[at.Weekday().String()]++
		hourCounts[at.Hour()]++
	}

	bestDay, bestDayCount := "", 0
	for day, count := range dayCounts {
		if count > bestDayCount || (count == bestDayCount && day < bestDay) {
			bestDay, bestDayCount = day, count
		}
	}
	bestHour, bestHourCount := 0, 0
	for hour, count := range hourCounts {
		if count > bestHourCount || (count == bestHourCount && hour < bestHour) {
			bestHour, bestHourCount = hour, count
		}
	}

	distribution := make([]domain.DaySessions, 0, len(dayCounts))
	for day, count := range dayCounts {
		distribution = append(distribution, domain.DaySessions{Day: day, Sessions: count})
	}
	sort.Slice(distribution, func(i, j int) bool {
		return distribution[i].Sessions > distribution[j].Sessions
	})

	return &domain.TimePatterns{
		MostActiveDay:   bestDay,
		MostActiveHour:  fmt.Sprintf("%d:00", bestHour),
		DayDistribution: distribution,
		Recommendation:  fmt.Sprintf("You learn best on %ss!", bestDay),
	}, nil
}

func performanceLevel(score float64) string {
	switch {
	case score >= 0.9:
		return "Excellent"
	case score >= 0.7:
		return "Strong"
	case score >= 0.5:
		return "Good"
	case score >= 0.3:
		return "Needs Work"
	default:
		return "Poor"
	}
}

func activityLevel(count int) int {
	switch {
	case count >= 5:
		return 4
	case count >= 3:
		return 3
	case count >= 2:
		return 2
	case count >= 1:
		return 1
	default:
		return 0
	}
}

func streakMessage(streak int) string {
	switch {
	case streak >= 30:
		return "Incredible! You're on fire!"
	case streak >= 14:
		return "Amazing consistency! Keep it up!"
	case streak >= 7:
		return "Great week of learning!"
	case streak >= 3:
		return "Nice streak! Keep going!"
	case streak >= 1:
		return "Good start! Come back tomorrow!"
	default:
		return "Start your streak today!"
	}
}

func averageScore(list []responsedomain.Response) float64 {
	if len(list) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range list {
		sum += r.UnderstandingScore
	}
	return sum / float64(len(list))
}

func roundPercent(score float64) float64 {
	return round1(score * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return truncateDay(a).Equal(truncateDay(b))
}

func daysBetween(earlier, later time.Time) int {
	return int(truncateDay(later).Sub(truncateDay(earlier)).Hours() / 24)
}
