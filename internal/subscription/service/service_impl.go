package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/elimisha-app/elimisha/internal/auth/domain"
	"github.com/elimisha-app/elimisha/internal/subscription/domain"
	"github.com/elimisha-app/elimisha/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	log   *zap.Logger
	db    *gorm.DB
	repo  domain.Repository
	genID *snowflake.Node
	now   func() time.Time
}

func New(log *zap.Logger, gdb *gorm.DB, repo domain.Repository, genID *snowflake.Node) domain.Service {
	return &Service{
		log:   log.Named("subscription.service"),
		db:    gdb,
		repo:  repo,
		genID: genID,
		now:   time.Now,
	}
}

func (s *Service) CurrentForUser(ctx context.Context, userID int64) (*domain.Subscription, error) {
	sub, err := s.repo.FindByUserID(ctx, userID)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		return s.provisionFree(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	// Premium that ran past its end date lapses on read.
	if sub.Plan == domain.PlanPremium && !sub.Active(s.now().UTC()) {
		return s.expire(ctx, sub)
	}
	return sub, nil
}

func (s *Service) ActivateTx(ctx context.Context, tx *gorm.DB, userID int64, months int) error {
	if months <= 0 {
		return fmt.Errorf("activate subscription: invalid duration %d months", months)
	}

	now := s.now().UTC()
	end := now.AddDate(0, months, 0)

	sub, err := s.repo.FindByUserIDTx(ctx, tx, userID)
	switch {
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		sub = &domain.Subscription{
			ID:     s.genID.Generate(),
			UserID: userID,
		}
	case err != nil:
		return fmt.Errorf("activate subscription: %w", err)
	}

	// A renewal while still premium extends from the current end date so the
	// payer never loses paid-for time.
	if sub.Active(now) && sub.EndDate != nil && sub.EndDate.After(now) {
		end = sub.EndDate.AddDate(0, months, 0)
	} else {
		sub.StartDate = now
	}

	sub.Plan = domain.PlanPremium
	sub.PaymentStatus = domain.PaymentStatusActive
	sub.EndDate = &end
	sub.UpdatedAt = now

	if err := s.repo.SaveTx(ctx, tx, sub); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// A concurrent activation already created the row. The winning
			// transaction carries the grant; this one must not double it.
			return fmt.Errorf("activate subscription: concurrent activation: %w", err)
		}
		return fmt.Errorf("activate subscription: %w", err)
	}

	if err := tx.WithContext(ctx).
		Model(&authdomain.User{}).
		Where("id = ?", userID).
		Update("tier", authdomain.TierPremium).Error; err != nil {
		return fmt.Errorf("activate subscription: upgrade tier: %w", err)
	}

	s.log.Info("subscription activated",
		zap.Int64("user_id", userID),
		zap.Int("months", months),
		zap.Time("end_date", end),
	)
	return nil
}

func (s *Service) Cancel(ctx context.Context, userID int64) (*domain.Subscription, error) {
	sub, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.Plan != domain.PlanPremium {
		return nil, domain.ErrNotPremium
	}

	sub.PaymentStatus = domain.PaymentStatusCancelled
	sub.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.log.Info("subscription cancelled", zap.Int64("user_id", userID))
	return sub, nil
}

func (s *Service) provisionFree(ctx context.Context, userID int64) (*domain.Subscription, error) {
	now := s.now().UTC()
	sub := &domain.Subscription{
		ID:            s.genID.Generate(),
		UserID:        userID,
		Plan:          domain.PlanFree,
		PaymentStatus: domain.PaymentStatusActive,
		StartDate:     now,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindByUserID(ctx, userID)
		}
		return nil, err
	}
	return sub, nil
}

// expire downgrades a lapsed premium subscription and the user's tier.
func (s *Service) expire(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sub.Plan = domain.PlanFree
		sub.PaymentStatus = domain.PaymentStatusExpired
		sub.UpdatedAt = s.now().UTC()
		if err := s.repo.SaveTx(ctx, tx, sub); err != nil {
			return err
		}
		return tx.WithContext(ctx).
			Model(&authdomain.User{}).
			Where("id = ?", sub.UserID).
			Update("tier", authdomain.TierFree).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("subscription expired", zap.Int64("user_id", sub.UserID))
	return sub, nil
}
