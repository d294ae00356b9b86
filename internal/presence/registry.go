// Package presence tracks which users hold a live push connection.
// Each user maps to at most one handle; the most recent join wins.
package presence

import (
	"sync"

	"go.uber.org/zap"

	"github.com/gigmarket/messaging/internal/domain"
	"github.com/gigmarket/messaging/internal/observability"
)

// Handle is a live push connection. Push must not block; it reports
// whether the event was queued for delivery.
type Handle interface {
	ID() string
	Push(ev domain.Event) bool
	Close()
}

type Registry struct {
	mu     sync.RWMutex
	users  map[string]Handle
	owners map[string]string // handle id -> user id
	closed bool
}

func NewRegistry() *Registry {
	return &Registry{
		users:  make(map[string]Handle),
		owners: make(map[string]string),
	}
}

// Join binds userID to h, replacing any previous handle. The replaced
// handle is left open and simply stops receiving pushes.
func (r *Registry) Join(userID string, h Handle) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		h.Close()
		return
	}

	if prev, ok := r.owners[h.ID()]; ok && prev != userID {
		if cur, ok := r.users[prev]; ok && cur.ID() == h.ID() {
			delete(r.users, prev)
		}
	}
	if old, ok := r.users[userID]; ok && old.ID() != h.ID() {
		delete(r.owners, old.ID())
		observability.Log.Debug("presence: replacing handle",
			zap.String("user_id", userID),
			zap.String("old_handle", old.ID()),
			zap.String("new_handle", h.ID()),
		)
	}
	r.users[userID] = h
	r.owners[h.ID()] = userID
	online := len(r.users)
	r.mu.Unlock()

	observability.PresenceOnline.Set(float64(online))
}

func (r *Registry) Lookup(userID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.users[userID]
	return h, ok
}

// Leave removes h only if it is still the current handle of its user.
// Leaving with a stale or unknown handle is a no-op.
func (r *Registry) Leave(h Handle) {
	r.mu.Lock()
	userID, ok := r.owners[h.ID()]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.owners, h.ID())
	if cur, ok := r.users[userID]; ok && cur.ID() == h.ID() {
		delete(r.users, userID)
	}
	online := len(r.users)
	r.mu.Unlock()

	observability.PresenceOnline.Set(float64(online))
}

func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Shutdown closes every live handle. Later joins close their handle immediately.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	handles := make([]Handle, 0, len(r.users))
	for _, h := range r.users {
		handles = append(handles, h)
	}
	r.users = make(map[string]Handle)
	r.owners = make(map[string]string)
	r.closed = true
	r.mu.Unlock()

	// Close outside the lock: a handle's teardown calls Leave.
	for _, h := range handles {
		h.Close()
	}
	observability.PresenceOnline.Set(0)
}
