package profile

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigmarket/messaging/internal/domain"
)

// Runs against a real redis when MESSAGING_TEST_REDIS_ADDR is set.
func TestCached_ReadThrough(t *testing.T) {
	addr := os.Getenv("MESSAGING_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MESSAGING_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	id := uuid.NewString()
	lookup := new(MockLookup)
	lookup.On("Resolve", ctx, id).Return(domain.Profile{ID: id, Name: "Ada", Kind: domain.ProfileFreelancer, ProfileImage: strptr("a.png")}, nil).Once()
	lookup.On("Resolve", ctx, "ghost").Return(domain.Profile{}, domain.ErrNotFound).Twice()

	c := &Cached{Next: lookup, R: rdb, TTL: time.Minute}
	t.Cleanup(func() { _ = rdb.Del(ctx, key(id)).Err() })

	for i := 0; i < 2; i++ {
		p, err := c.Resolve(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Ada", p.Name)
		assert.Equal(t, domain.ProfileFreelancer, p.Kind)
		assert.Equal(t, "a.png", *p.ProfileImage)
	}

	// misses are not cached
	for i := 0; i < 2; i++ {
		_, err := c.Resolve(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	lookup.AssertExpectations(t)
}
