package badgerstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigmarket/messaging/internal/domain"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

var base = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func msg(t *testing.T, from, to, body string, at time.Time) *domain.Message {
	t.Helper()
	m, err := domain.NewMessage(uuid.Must(uuid.NewV7()).String(), from, to, body, at)
	require.NoError(t, err)
	return m
}

func bodies(msgs []*domain.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Body
	}
	return out
}

func Test_ListConversation_Ascending_Both_Directions(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newStore(t)

	req.NoError(s.InsertMessage(ctx, msg(t, "alice", "bob", "one", base)))
	req.NoError(s.InsertMessage(ctx, msg(t, "bob", "alice", "two", base.Add(time.Second))))
	req.NoError(s.InsertMessage(ctx, msg(t, "alice", "carol", "other", base.Add(2*time.Second))))
	req.NoError(s.InsertMessage(ctx, msg(t, "alice", "bob", "three", base.Add(3*time.Second))))

	got, err := s.ListConversation(ctx, "bob", "alice")
	req.NoError(err)
	req.Equal([]string{"one", "two", "three"}, bodies(got))
}

func Test_ListConversation_Same_Timestamp_Keeps_Insertion_Order(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newStore(t)

	for i := 0; i < 20; i++ {
		req.NoError(s.InsertMessage(ctx, msg(t, "alice", "bob", fmt.Sprint(i), base)))
	}

	got, err := s.ListConversation(ctx, "alice", "bob")
	req.NoError(err)
	req.Len(got, 20)
	for i, m := range got {
		req.Equal(fmt.Sprint(i), m.Body)
	}
}

func Test_ListForUser_Descending(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newStore(t)

	req.NoError(s.InsertMessage(ctx, msg(t, "u", "x", "first", base)))
	req.NoError(s.InsertMessage(ctx, msg(t, "y", "u", "second", base.Add(time.Minute))))
	req.NoError(s.InsertMessage(ctx, msg(t, "x", "y", "unrelated", base.Add(2*time.Minute))))
	req.NoError(s.InsertMessage(ctx, msg(t, "x", "u", "third", base.Add(3*time.Minute))))

	got, err := s.ListForUser(ctx, "u")
	req.NoError(err)
	req.Equal([]string{"third", "second", "first"}, bodies(got))

	empty, err := s.ListForUser(ctx, "nobody")
	req.NoError(err)
	req.NotNil(empty)
	req.Empty(empty)
}

func Test_MarkRead_Is_Idempotent_And_Directional(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newStore(t)

	req.NoError(s.InsertMessage(ctx, msg(t, "a", "b", "1", base)))
	req.NoError(s.InsertMessage(ctx, msg(t, "a", "b", "2", base.Add(time.Second))))
	req.NoError(s.InsertMessage(ctx, msg(t, "b", "a", "reply", base.Add(2*time.Second))))

	n, err := s.MarkRead(ctx, "a", "b")
	req.NoError(err)
	req.Equal(2, n)

	n, err = s.MarkRead(ctx, "a", "b")
	req.NoError(err)
	req.Equal(0, n)

	got, err := s.ListConversation(ctx, "a", "b")
	req.NoError(err)
	for _, m := range got {
		if m.SenderID == "a" {
			assert.True(t, m.Read, m.Body)
		} else {
			assert.False(t, m.Read, "reply from b must stay unread")
		}
	}
}

func Test_MarkRead_Concurrent_Counts_Each_Message_Once(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newStore(t)

	for i := 0; i < 10; i++ {
		req.NoError(s.InsertMessage(ctx, msg(t, "a", "b", fmt.Sprint(i), base.Add(time.Duration(i)*time.Second))))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.MarkRead(ctx, "a", "b")
			assert.NoError(t, err)
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()
	req.Equal(10, total)
}

func Test_Closed_Store_Returns_StorageError(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	s := New(db)
	req.NoError(s.Close())

	err = s.InsertMessage(context.Background(), msg(t, "a", "b", "late", base))
	req.ErrorIs(err, domain.ErrStorage)
	req.ErrorIs(s.Ping(context.Background()), domain.ErrStorage)
}

func Test_Separator_In_User_ID_Is_Rejected(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newStore(t)

	req.NoError(s.InsertMessage(ctx, msg(t, "bob", "victim", "legit", base)))

	// built by hand, NewMessage would refuse it
	forged := &domain.Message{
		ID:          uuid.Must(uuid.NewV7()).String(),
		SenderID:    "mallory",
		RecipientID: "victim\x1fzzz",
		Body:        "injected",
		CreatedAt:   base.Add(time.Second),
	}
	err := s.InsertMessage(ctx, forged)
	req.ErrorIs(err, domain.ErrInvalidUserID)
	req.NotErrorIs(err, domain.ErrStorage)

	got, err := s.ListForUser(ctx, "victim")
	req.NoError(err)
	req.Equal([]string{"legit"}, bodies(got))

	got, err = s.ListConversation(ctx, "bob", "victim")
	req.NoError(err)
	req.Equal([]string{"legit"}, bodies(got))

	_, err = s.ListForUser(ctx, "victim\x1f")
	req.ErrorIs(err, domain.ErrInvalidUserID)
	_, err = s.ListConversation(ctx, "mallory\x1fvictim", "x")
	req.ErrorIs(err, domain.ErrInvalidUserID)
	_, err = s.MarkRead(ctx, "bob", "victim\x1f")
	req.ErrorIs(err, domain.ErrInvalidUserID)
}
