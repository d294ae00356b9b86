package repository

import (
	"context"

	"github.com/gigmarket/messaging/internal/domain"
)

// Repository is the durable message store. Implementations return
// *domain.StorageError for I/O failures and never retry.
type Repository interface {
	InsertMessage(ctx context.Context, msg *domain.Message) error
	// ListConversation returns both directions between a and b, oldest first.
	ListConversation(ctx context.Context, a, b string) ([]*domain.Message, error)
	// ListForUser returns every message sent or received by userID, newest first.
	ListForUser(ctx context.Context, userID string) ([]*domain.Message, error)
	// MarkRead flips unread messages from -> to and returns how many changed.
	MarkRead(ctx context.Context, from, to string) (int, error)
	Ping(ctx context.Context) error
}
