package application

import (
	"context"

	"github.com/gigmarket/messaging/internal/domain"
	"github.com/gigmarket/messaging/internal/observability"
)

// ListConversation returns the full history between two users, oldest first.
func (s *Service) ListConversation(ctx context.Context, userA, userB string) ([]*domain.Message, error) {
	if err := domain.CheckUserIDs(userA, userB); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListConversation(ctx, userA, userB)
	if err != nil {
		return nil, domain.NewStorageError("list conversation", err)
	}
	return msgs, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]*domain.Message, error) {
	if err := domain.CheckUserIDs(userID); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, domain.NewStorageError("list for user", err)
	}
	return msgs, nil
}

// MarkRead flips every unread message from -> to and returns how many changed.
// Repeating the call returns 0.
func (s *Service) MarkRead(ctx context.Context, from, to string) (int, error) {
	if err := domain.CheckUserIDs(from, to); err != nil {
		return 0, err
	}
	n, err := s.repo.MarkRead(ctx, from, to)
	if err != nil {
		return 0, domain.NewStorageError("mark read", err)
	}
	observability.MessagesMarkedReadTotal.Add(float64(n))
	return n, nil
}
