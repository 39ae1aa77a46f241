// Package domain defines downloadable report artifacts.
package domain

import (
	"context"

	authdomain "github.com/elimisha-app/elimisha/internal/auth/domain"
)

// Export is a rendered file ready to stream to the client.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Service renders premium data exports.
type Service interface {
	HistoryCSV(ctx context.Context, userID int64) (*Export, error)
	ProgressCSV(ctx context.Context, userID int64) (*Export, error)
	FullReportCSV(ctx context.Context, user *authdomain.User) (*Export, error)
}
