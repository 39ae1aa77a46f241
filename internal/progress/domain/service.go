package domain

import "context"

type Service interface {
	// RecordSession folds a graded session into the user's per-topic average,
	// creating the topic row on first contact.
	RecordSession(ctx context.Context, userID int64, topic string, score float64) (*Progress, error)

	ListForUser(ctx context.Context, userID int64) ([]Progress, error)

	// WeakTopics lists topics whose running average sits below the revision
	// threshold, worst first.
	WeakTopics(ctx context.Context, userID int64) ([]string, error)
}
