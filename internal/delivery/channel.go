// Package delivery pushes stored messages and read receipts to connected
// users. Offline recipients get nothing pushed; they read from the store later.
package delivery

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/gigmarket/messaging/internal/domain"
	"github.com/gigmarket/messaging/internal/observability"
	"github.com/gigmarket/messaging/internal/presence"
	"github.com/gigmarket/messaging/internal/profile"
)

type Appender interface {
	Append(ctx context.Context, senderID, recipientID, body string) (*domain.Message, error)
}

type Presence interface {
	Lookup(userID string) (presence.Handle, bool)
}

type Channel struct {
	store    Appender
	presence Presence
	enricher *profile.Enricher
	locks    *pairLocks
}

func NewChannel(store Appender, presence Presence, enricher *profile.Enricher) *Channel {
	return &Channel{
		store:    store,
		presence: presence,
		enricher: enricher,
		locks:    newPairLocks(),
	}
}

// Send appends the message and pushes it to the recipient if online. origin,
// when set, is the connection that issued the send and gets a messageSent ack.
// Push failures are logged and never returned.
func (c *Channel) Send(ctx context.Context, senderID, recipientID, body string, origin presence.Handle) (*domain.EnrichedMessage, error) {
	unlock := c.locks.lock(senderID + "\x00" + recipientID)
	defer unlock()

	msg, err := c.store.Append(ctx, senderID, recipientID, body)
	if err != nil {
		return nil, err
	}
	enriched := c.enricher.Message(ctx, msg)

	if h, ok := c.presence.Lookup(recipientID); ok {
		c.push(ctx, recipientID, h, domain.Event{Name: domain.EventReceiveMessage, Data: enriched})
	} else {
		observability.PushesTotal.WithLabelValues(domain.EventReceiveMessage, "offline").Inc()
	}

	if origin != nil {
		c.push(ctx, senderID, origin, domain.Event{Name: domain.EventMessageSent, Data: enriched})
	}
	return &enriched, nil
}

// PropagateRead tells both parties that messages from -> to were read.
func (c *Channel) PropagateRead(ctx context.Context, from, to string, count int) {
	ev := domain.Event{
		Name: domain.EventMessageRead,
		Data: domain.ReadNotice{From: from, To: to, Count: count},
	}
	for _, uid := range uniq(from, to) {
		h, ok := c.presence.Lookup(uid)
		if !ok {
			observability.PushesTotal.WithLabelValues(domain.EventMessageRead, "offline").Inc()
			continue
		}
		c.push(ctx, uid, h, ev)
	}
}

func (c *Channel) push(ctx context.Context, userID string, h presence.Handle, ev domain.Event) {
	if h.Push(ev) {
		observability.PushesTotal.WithLabelValues(ev.Name, "delivered").Inc()
		return
	}
	observability.PushesTotal.WithLabelValues(ev.Name, "dropped").Inc()
	observability.GetLogger(ctx).Warn("delivery: push failed",
		zap.String("event", ev.Name),
		zap.String("user_id", userID),
		zap.String("handle", h.ID()),
	)
}

func uniq(a, b string) []string {
	if a == b {
		return []string{a}
	}
	return []string{a, b}
}

// pairLocks hands out one mutex per directed pair and drops it once unused.
type pairLocks struct {
	mu    sync.Mutex
	locks map[string]*pairLock
}

type pairLock struct {
	sync.Mutex
	refs int
}

func newPairLocks() *pairLocks {
	return &pairLocks{locks: make(map[string]*pairLock)}
}

func (p *pairLocks) lock(key string) func() {
	p.mu.Lock()
	l, ok := p.locks[key]
	if !ok {
		l = &pairLock{}
		p.locks[key] = l
	}
	l.refs++
	p.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, key)
		}
		p.mu.Unlock()
	}
}
