package repository

import (
	"context"
	"errors"

	"github.com/elimisha-app/elimisha/internal/payment/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, rec *domain.PaymentRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *repo) FindByCheckoutID(ctx context.Context, checkoutRequestID string) (*domain.PaymentRecord, error) {
	var rec domain.PaymentRecord
	err := r.db.WithContext(ctx).
		Where("checkout_request_id = ?", checkoutRequestID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *repo) FindByUser(ctx context.Context, userID int64, limit int) ([]domain.PaymentRecord, error) {
	var recs []domain.PaymentRecord
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *repo) FindByCheckoutIDForUpdate(ctx context.Context, tx *gorm.DB, checkoutRequestID string) (*domain.PaymentRecord, error) {
	q := tx.WithContext(ctx)
	// SQLite serializes writers at the database level and rejects FOR UPDATE.
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var rec domain.PaymentRecord
	err := q.Where("checkout_request_id = ?", checkoutRequestID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *repo) SaveTx(ctx context.Context, tx *gorm.DB, rec *domain.PaymentRecord) error {
	return tx.WithContext(ctx).Save(rec).Error
}
