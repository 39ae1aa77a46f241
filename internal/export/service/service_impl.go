package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"time"

	authdomain "github.com/elimisha-app/elimisha/internal/auth/domain"
	"github.com/elimisha-app/elimisha/internal/export/domain"
	progressdomain "github.com/elimisha-app/elimisha/internal/progress/domain"
	responsedomain "github.com/elimisha-app/elimisha/internal/response/domain"
	"go.uber.org/zap"
)

const csvContentType = "text/csv"

type Service struct {
	log       *zap.Logger
	responses responsedomain.Repository
	progress  progressdomain.Repository
	now       func() time.Time
}

func New(log *zap.Logger, responses responsedomain.Repository, progress progressdomain.Repository) domain.Service {
	return &Service{
		log:       log.Named("export.service"),
		responses: responses,
		progress:  progress,
		now:       time.Now,
	}
}

func (s *Service) HistoryCSV(ctx context.Context, userID int64) (*domain.Export, error) {
	list, err := s.responses.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{
		"Date", "Time", "Concept", "Your Explanation", "AI Feedback",
		"Understanding Score (%)", "Performance Level",
	})
	for _, r := range list {
		percent := round1(r.UnderstandingScore * 100)
		w.Write([]string{
			r.CreatedAt.Format("2006-01-02"),
			r.CreatedAt.Format("15:04:05"),
			r.Concept,
			r.LearnerInput,
			r.AIFeedback,
			formatPercent(percent),
			exportLevel(percent),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return s.export("history", buf.Bytes()), nil
}

func (s *Service) ProgressCSV(ctx context.Context, userID int64) (*domain.Export, error) {
	list, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{
		"Topic", "Total Sessions", "Average Score (%)", "Performance Level",
		"Last Practiced", "First Practiced",
	})
	for _, p := range list {
		percent := round1(p.AverageScore * 100)
		w.Write([]string{
			p.Topic,
			strconv.Itoa(p.TotalSessions),
			formatPercent(percent),
			exportLevel(percent),
			p.LastSessionAt.Format("2006-01-02 15:04:05"),
			p.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return s.export("progress", buf.Bytes()), nil
}

func (s *Service) FullReportCSV(ctx context.Context, user *authdomain.User) (*domain.Export, error) {
	userID := int64(user.ID)
	responses, err := s.responses.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	progress, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	avg := 0.0
	if len(responses) > 0 {
		for _, r := range responses {
			avg += r.UnderstandingScore
		}
		avg /= float64(len(responses))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{"ELIMISHA LEARNING REPORT"})
	w.Write([]string{"Generated:", s.now().Format("2006-01-02 15:04:05")})
	w.Write([]string{"User:", user.Email})
	w.Write(nil)

	w.Write([]string{"OVERALL STATISTICS"})
	w.Write([]string{"Total Learning Sessions", strconv.Itoa(len(responses))})
	w.Write([]string{"Average Understanding Score", formatPercent(round1(avg*100)) + "%"})
	w.Write([]string{"Topics Studied", strconv.Itoa(len(progress))})
	w.Write(nil)

	w.Write([]string{"PROGRESS BY TOPIC"})
	w.Write([]string{"Topic", "Sessions", "Avg Score (%)", "Last Practiced"})
	for _, p := range progress {
		w.Write([]string{
			p.Topic,
			strconv.Itoa(p.TotalSessions),
			formatPercent(round1(p.AverageScore * 100)),
			p.LastSessionAt.Format("2006-01-02"),
		})
	}
	w.Write(nil)

	w.Write([]string{"RECENT LEARNING SESSIONS (Last 10)"})
	w.Write([]string{"Date", "Concept", "Score (%)", "Feedback Summary"})
	recent := responses
	if len(recent) > 10 {
		recent = recent[:10]
	}
	for _, r := range recent {
		feedback := r.AIFeedback
		if len(feedback) > 100 {
			feedback = feedback[:100] + "..."
		}
		w.Write([]string{
			r.CreatedAt.Format("2006-01-02"),
			r.Concept,
			formatPercent(round1(r.UnderstandingScore * 100)),
			feedback,
		})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return s.export("full_report", buf.Bytes()), nil
}

func (s *Service) export(kind string, data []byte) *domain.Export {
	return &domain.Export{
		Filename:    fmt.Sprintf("elimisha_%s_%s.csv", kind, s.now().Format("20060102")),
		ContentType: csvContentType,
		Data:        data,
	}
}

// exportLevel buckets a percentage score the way the downloadable reports
// present it, which is coarser than the in-app analytics levels.
func exportLevel(percent float64) string {
	switch {
	case percent >= 90:
		return "Excellent"
	case percent >= 70:
		return "Strong"
	case percent >= 50:
		return "Good"
	default:
		return "Needs Improvement"
	}
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
