package application

import (
	"context"

	"github.com/gigmarket/messaging/internal/domain"
)

// Summarize builds the inbox of userID: one entry per counterpart, newest
// conversation first. It is derived from the store on every call.
func (s *Service) Summarize(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	msgs, err := s.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := summarize(userID, msgs)

	enrich := s.enricher.Session(ctx)
	out := make([]domain.ConversationSummary, 0, len(summaries))
	for _, c := range summaries {
		out = append(out, domain.ConversationSummary{
			Counterpart: enrich.Profile(c.counterpart),
			LastMessage: enrich.Message(c.last),
			UnreadCount: c.unread,
		})
	}
	return out, nil
}

type conversation struct {
	counterpart string
	last        *domain.Message
	unread      int
}

// summarize folds msgs, which must be newest first, into one entry per
// counterpart. The first message seen for a counterpart is its latest.
func summarize(userID string, msgs []*domain.Message) []*conversation {
	byUser := make(map[string]*conversation)
	order := make([]*conversation, 0)

	for _, m := range msgs {
		other := m.Counterpart(userID)
		c, ok := byUser[other]
		if !ok {
			c = &conversation{counterpart: other, last: m}
			byUser[other] = c
			order = append(order, c)
		}
		if m.RecipientID == userID && !m.Read {
			c.unread++
		}
	}
	return order
}
