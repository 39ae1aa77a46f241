package repository

import (
	"context"
	"time"

	"github.com/elimisha-app/elimisha/internal/response/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, resp *domain.Response) error {
	return r.db.WithContext(ctx).Create(resp).Error
}

func (r *repo) ListByUser(ctx context.Context, userID int64, limit int) ([]domain.Response, error) {
	var list []domain.Response
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repo) CountSince(ctx context.Context, userID int64, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Response{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}

func (r *repo) ListByUserSince(ctx context.Context, userID int64, since, until time.Time) ([]domain.Response, error) {
	var list []domain.Response
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, since, until).
		Order("created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
