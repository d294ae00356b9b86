package delivery

import (
	"context"

	"go.uber.org/zap"

	"github.com/gigmarket/messaging/internal/domain"
	"github.com/gigmarket/messaging/internal/observability"
)

type ReadMarker interface {
	MarkRead(ctx context.Context, from, to string) (int, error)
}

// Reconciler is the single path for read receipts, shared by the HTTP and
// websocket surfaces.
type Reconciler struct {
	store   ReadMarker
	channel *Channel
}

func NewReconciler(store ReadMarker, channel *Channel) *Reconciler {
	return &Reconciler{store: store, channel: channel}
}

// MarkRead flips messages from -> to and notifies both users, even when
// nothing changed, so repeated opens still converge.
func (r *Reconciler) MarkRead(ctx context.Context, from, to string) (int, error) {
	switch {
	case from == "":
		return 0, domain.ErrMissingSender
	case to == "":
		return 0, domain.ErrMissingRecipient
	}

	n, err := r.store.MarkRead(ctx, from, to)
	if err != nil {
		return 0, err
	}

	observability.GetLogger(ctx).Debug("messages marked read",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("count", n),
	)
	r.channel.PropagateRead(ctx, from, to, n)
	return n, nil
}
