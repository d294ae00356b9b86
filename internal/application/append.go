package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gigmarket/messaging/internal/domain"
	"github.com/gigmarket/messaging/internal/observability"
)

// Append validates and durably stores a new unread message. Nothing is
// written when validation fails.
func (s *Service) Append(ctx context.Context, senderID, recipientID, body string) (*domain.Message, error) {
	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	msg, err := domain.NewMessage(id.String(), senderID, recipientID, body, s.now())
	if err != nil {
		return nil, err
	}

	for _, uid := range []string{senderID, recipientID} {
		if err := s.checkUser(ctx, uid); err != nil {
			return nil, err
		}
	}

	if err := s.repo.InsertMessage(ctx, msg); err != nil {
		return nil, domain.NewStorageError("insert message", err)
	}

	observability.MessagesStoredTotal.Inc()
	observability.GetLogger(ctx).Debug("message stored",
		zap.String("message_id", msg.ID),
		zap.String("sender_id", senderID),
		zap.String("recipient_id", recipientID),
	)
	return msg, nil
}

func (s *Service) checkUser(ctx context.Context, userID string) error {
	_, err := s.users.Resolve(ctx, userID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("%w: %s", domain.ErrUnknownUser, userID)
	default:
		return fmt.Errorf("failed to resolve user %s: %w", userID, err)
	}
}
