package domain

import (
	"context"
	"errors"
)

var ErrProgressNotFound = errors.New("progress not found")

type Repository interface {
	Create(ctx context.Context, p *Progress) error
	FindByUserTopic(ctx context.Context, userID int64, topic string) (*Progress, error)
	ListByUser(ctx context.Context, userID int64) ([]Progress, error)
	Update(ctx context.Context, p *Progress) error
}
