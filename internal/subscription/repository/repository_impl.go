package repository

import (
	"context"
	"errors"

	"github.com/elimisha-app/elimisha/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, sub *domain.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repo) FindByUserID(ctx context.Context, userID int64) (*domain.Subscription, error) {
	return findByUserID(r.db.WithContext(ctx), userID)
}

func (r *repo) Update(ctx context.Context, sub *domain.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *repo) FindByUserIDTx(ctx context.Context, tx *gorm.DB, userID int64) (*domain.Subscription, error) {
	return findByUserID(tx.WithContext(ctx), userID)
}

func (r *repo) SaveTx(ctx context.Context, tx *gorm.DB, sub *domain.Subscription) error {
	return tx.WithContext(ctx).Save(sub).Error
}

func findByUserID(db *gorm.DB, userID int64) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := db.Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}
