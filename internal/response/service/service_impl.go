package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	aidomain "github.com/elimisha-app/elimisha/internal/ai/domain"
	authdomain "github.com/elimisha-app/elimisha/internal/auth/domain"
	progressdomain "github.com/elimisha-app/elimisha/internal/progress/domain"
	"github.com/elimisha-app/elimisha/internal/response/domain"
	"go.uber.org/zap"
)

type Service struct {
	log      *zap.Logger
	repo     domain.Repository
	tutor    aidomain.Service
	progress progressdomain.Service
	genID    *snowflake.Node
	now      func() time.Time
}

func New(
	log *zap.Logger,
	repo domain.Repository,
	tutor aidomain.Service,
	progress progressdomain.Service,
	genID *snowflake.Node,
) domain.Service {
	return &Service{
		log:      log.Named("response.service"),
		repo:     repo,
		tutor:    tutor,
		progress: progress,
		genID:    genID,
		now:      time.Now,
	}
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.SubmitResult, error) {
	concept := strings.TrimSpace(req.Concept)
	input := strings.TrimSpace(req.LearnerInput)
	if concept == "" || input == "" {
		return nil, domain.ErrMissingFields
	}

	userID := int64(req.User.ID)
	if !req.User.IsPremium() {
		used, err := s.repo.CountSince(ctx, userID, startOfDay(s.now().UTC()))
		if err != nil {
			return nil, err
		}
		if used >= domain.FreeDailyLimit {
			return nil, domain.ErrQuotaExceeded
		}
	}

	analysis := s.tutor.AnalyzeExplanation(ctx, concept, input)

	resp := &domain.Response{
		ID:                 s.genID.Generate(),
		UserID:             userID,
		Concept:            concept,
		LearnerInput:       input,
		AIFeedback:         analysis.Feedback,
		UnderstandingScore: analysis.Score,
		CreatedAt:          s.now().UTC(),
	}
	if err := s.repo.Create(ctx, resp); err != nil {
		return nil, err
	}

	prog, err := s.progress.RecordSession(ctx, userID, concept, analysis.Score)
	if err != nil {
		// The session is already stored and graded; stale progress heals on
		// the next submission for the topic.
		s.log.Warn("progress update failed",
			zap.Int64("user_id", userID),
			zap.String("topic", concept),
			zap.Error(err),
		)
	}

	return &domain.SubmitResult{Response: resp, Progress: prog}, nil
}

func (s *Service) History(ctx context.Context, userID int64, limit int) ([]domain.Response, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *Service) UsageFor(ctx context.Context, user *authdomain.User) (*domain.Usage, error) {
	if user.IsPremium() {
		return &domain.Usage{Unlimited: true}, nil
	}

	used, err := s.repo.CountSince(ctx, int64(user.ID), startOfDay(s.now().UTC()))
	if err != nil {
		return nil, err
	}
	remaining := domain.FreeDailyLimit - int(used)
	if remaining < 0 {
		remaining = 0
	}
	return &domain.Usage{
		UsedToday: int(used),
		Limit:     domain.FreeDailyLimit,
		Remaining: remaining,
	}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
