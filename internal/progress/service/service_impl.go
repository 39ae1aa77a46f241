package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/elimisha-app/elimisha/internal/progress/domain"
	"github.com/elimisha-app/elimisha/pkg/db"
	"go.uber.org/zap"
)

type Service struct {
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	now   func() time.Time
}

func New(log *zap.Logger, repo domain.Repository, genID *snowflake.Node) domain.Service {
	return &Service{
		log:   log.Named("progress.service"),
		repo:  repo,
		genID: genID,
		now:   time.Now,
	}
}

func (s *Service) RecordSession(ctx context.Context, userID int64, topic string, score float64) (*domain.Progress, error) {
	now := s.now().UTC()

	p, err := s.repo.FindByUserTopic(ctx, userID, topic)
	if errors.Is(err, domain.ErrProgressNotFound) {
		p = &domain.Progress{
			ID:        s.genID.Generate(),
			UserID:    userID,
			Topic:     topic,
			CreatedAt: now,
		}
		p.Record(score, now)
		if cerr := s.repo.Create(ctx, p); cerr != nil {
			if db.IsDuplicateKeyErr(cerr) {
				// Lost a race on the first session for this topic; fold into
				// the row the winner created.
				return s.recordExisting(ctx, userID, topic, score, now)
			}
			return nil, cerr
		}
		return p, nil
	}
	if err != nil {
		return nil, err
	}

	p.Record(score, now)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) recordExisting(ctx context.Context, userID int64, topic string, score float64, now time.Time) (*domain.Progress, error) {
	p, err := s.repo.FindByUserTopic(ctx, userID, topic)
	if err != nil {
		return nil, err
	}
	p.Record(score, now)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListForUser(ctx context.Context, userID int64) ([]domain.Progress, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) WeakTopics(ctx context.Context, userID int64) ([]string, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var weak []string
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].IsWeak() {
			weak = append(weak, list[i].Topic)
		}
	}
	return weak, nil
}
