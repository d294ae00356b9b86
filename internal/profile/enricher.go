package profile

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/gigmarket/messaging/internal/domain"
	"github.com/gigmarket/messaging/internal/observability"
)

// Enricher attaches display profiles to messages. Lookup failures degrade to
// an anonymous profile; enrichment never fails delivery.
type Enricher struct {
	lookup Lookup
}

func NewEnricher(lookup Lookup) *Enricher {
	return &Enricher{lookup: lookup}
}

func (e *Enricher) Profile(ctx context.Context, userID string) domain.Profile {
	p, err := e.lookup.Resolve(ctx, userID)
	if err == nil {
		return p
	}
	log := observability.GetLogger(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug("profile not found, sending anonymous", zap.String("user_id", userID))
	} else {
		log.Warn("profile lookup failed, sending anonymous", zap.String("user_id", userID), zap.Error(err))
	}
	return domain.Anonymous(userID)
}

func (e *Enricher) Message(ctx context.Context, m *domain.Message) domain.EnrichedMessage {
	return e.Session(ctx).Message(m)
}

func (e *Enricher) Messages(ctx context.Context, ms []*domain.Message) []domain.EnrichedMessage {
	s := e.Session(ctx)
	return lo.Map(ms, func(m *domain.Message, _ int) domain.EnrichedMessage {
		return s.Message(m)
	})
}

// Session memoizes lookups for the lifetime of one request.
func (e *Enricher) Session(ctx context.Context) *Session {
	return &Session{ctx: ctx, e: e, seen: make(map[string]domain.Profile)}
}

type Session struct {
	ctx  context.Context
	e    *Enricher
	seen map[string]domain.Profile
}

func (s *Session) Profile(userID string) domain.Profile {
	if p, ok := s.seen[userID]; ok {
		return p
	}
	p := s.e.Profile(s.ctx, userID)
	s.seen[userID] = p
	return p
}

func (s *Session) Message(m *domain.Message) domain.EnrichedMessage {
	return domain.EnrichedMessage{
		ID:        m.ID,
		Sender:    s.Profile(m.SenderID),
		Recipient: s.Profile(m.RecipientID),
		Content:   m.Body,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}
