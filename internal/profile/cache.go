package profile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gigmarket/messaging/internal/domain"
	"github.com/gigmarket/messaging/internal/observability"
)

// Cached fronts a Lookup with redis. Misses (ErrNotFound) are not cached.
type Cached struct {
	Next Lookup
	R    *redis.Client
	TTL  time.Duration
}

type cachedProfile struct {
	ID    string             `json:"id"`
	Name  string             `json:"name"`
	Kind  domain.ProfileKind `json:"kind"`
	Image *string            `json:"image,omitempty"`
}

func key(id string) string { return "profile:" + id }

func (c *Cached) Resolve(ctx context.Context, userID string) (domain.Profile, error) {
	if p, err := c.get(ctx, userID); err == nil {
		return p, nil
	} else if !errors.Is(err, redis.Nil) {
		observability.GetLogger(ctx).Warn("profile cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	p, err := c.Next.Resolve(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if err := c.set(ctx, p); err != nil {
		observability.GetLogger(ctx).Warn("profile cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return p, nil
}

func (c *Cached) get(ctx context.Context, id string) (domain.Profile, error) {
	b, err := c.R.Get(ctx, key(id)).Bytes()
	if err != nil {
		return domain.Profile{}, err
	}
	var cp cachedProfile
	if err := json.Unmarshal(b, &cp); err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{ID: cp.ID, Name: cp.Name, Kind: cp.Kind, ProfileImage: cp.Image}, nil
}

func (c *Cached) set(ctx context.Context, p domain.Profile) error {
	b, err := json.Marshal(cachedProfile{ID: p.ID, Name: p.Name, Kind: p.Kind, Image: p.ProfileImage})
	if err != nil {
		return err
	}
	return c.R.Set(ctx, key(p.ID), b, c.TTL).Err()
}
