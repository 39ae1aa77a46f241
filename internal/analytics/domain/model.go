// Package domain holds the learning analytics read models.
package domain

import "context"

// TimelinePoint is one day's averaged performance.
type TimelinePoint struct {
	Date     string  `json:"date"`
	Score    float64 `json:"score"`
	Sessions int     `json:"sessions"`
}

type Timeline struct {
	Points []TimelinePoint `json:"timeline_data"`
	Period string          `json:"period"`
}

// TopicStat compares one topic against the rest.
type TopicStat struct {
	Topic            string  `json:"topic"`
	AverageScore     float64 `json:"average_score"`
	TotalSessions    int     `json:"total_sessions"`
	LastPracticed    string  `json:"last_practiced"`
	PerformanceLevel string  `json:"performance_level"`
}

type TopicComparison struct {
	Topics []TopicStat `json:"topics"`
	Best   *TopicStat  `json:"best_topic"`
	Worst  *TopicStat  `json:"worst_topic"`
}

type Streak struct {
	Current      int    `json:"current_streak"`
	Longest      int    `json:"longest_streak"`
	LastActivity string `json:"last_activity,omitempty"`
	Message      string `json:"message"`
}

type WeekStats struct {
	Sessions      int     `json:"sessions"`
	AverageScore  float64 `json:"average_score"`
	TopicsCovered int     `json:"topics_covered,omitempty"`
}

type WeeklySummary struct {
	ThisWeek    WeekStats `json:"this_week"`
	LastWeek    WeekStats `json:"last_week"`
	Improvement float64   `json:"improvement"`
	Trend       string    `json:"trend"`
}

// HeatmapCell is one day's activity bucketed into intensity levels 0-4.
type HeatmapCell struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

type Heatmap struct {
	Cells  []HeatmapCell `json:"heatmap"`
	Period string        `json:"period"`
}

type DaySessions struct {
	Day      string `json:"day"`
	Sessions int    `json:"sessions"`
}

type TimePatterns struct {
	MostActiveDay   string        `json:"most_active_day,omitempty"`
	MostActiveHour  string        `json:"most_active_hour,omitempty"`
	DayDistribution []DaySessions `json:"day_distribution"`
	Recommendation  string        `json:"recommendation"`
}

type Service interface {
	Timeline(ctx context.Context, userID int64, days int) (*Timeline, error)
	TopicComparison(ctx context.Context, userID int64) (*TopicComparison, error)
	Streak(ctx context.Context, userID int64) (*Streak, error)
	WeeklySummary(ctx context.Context, userID int64) (*WeeklySummary, error)
	Heatmap(ctx context.Context, userID int64) (*Heatmap, error)
	TimePatterns(ctx context.Context, userID int64) (*TimePatterns, error)
}
