package repository

import (
	"context"
	"errors"

	"github.com/elimisha-app/elimisha/internal/progress/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, p *domain.Progress) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repo) FindByUserTopic(ctx context.Context, userID int64, topic string) (*domain.Progress, error) {
	var p domain.Progress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND topic = ?", userID, topic).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProgressNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]domain.Progress, error) {
	var list []domain.Progress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("average_score DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repo) Update(ctx context.Context, p *domain.Progress) error {
	return r.db.WithContext(ctx).Save(p).Error
}
