// Package profile resolves the display identity attached to messages.
// The directory itself (users, client and freelancer profiles) belongs to
// the account service; this package only reads it.
package profile

import (
	"context"

	"github.com/gigmarket/messaging/internal/domain"
)

// Lookup resolves a user id to its display profile. A missing user
// returns domain.ErrNotFound.
type Lookup interface {
	Resolve(ctx context.Context, userID string) (domain.Profile, error)
}

// Static is an in-process directory, used when no account database is configured.
type Static map[string]domain.Profile

func (s Static) Resolve(_ context.Context, userID string) (domain.Profile, error) {
	p, ok := s[userID]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

// Open resolves every non-empty id to an anonymous profile. It backs the
// embedded single-node mode where identity comes only from the session token.
type Open struct{}

func (Open) Resolve(_ context.Context, userID string) (domain.Profile, error) {
	if userID == "" {
		return domain.Profile{}, domain.ErrNotFound
	}
	return domain.Anonymous(userID), nil
}
