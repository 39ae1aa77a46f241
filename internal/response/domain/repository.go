package domain

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, resp *Response) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]Response, error)
	CountSince(ctx context.Context, userID int64, since time.Time) (int64, error)
	ListByUserSince(ctx context.Context, userID int64, since, until time.Time) ([]Response, error)
}
