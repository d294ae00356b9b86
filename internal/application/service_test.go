package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigmarket/messaging/internal/domain"
	"github.com/gigmarket/messaging/internal/profile"
	"github.com/gigmarket/messaging/internal/repository"
	"github.com/gigmarket/messaging/internal/repository/badgerstore"
)

var users = profile.Static{
	"alice": {ID: "alice", Name: "Alice", Kind: domain.ProfileClient},
	"bob":   {ID: "bob", Name: "Bob", Kind: domain.ProfileFreelancer},
	"carol": {ID: "carol", Name: "Carol", Kind: domain.ProfileFreelancer},
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newService(t *testing.T) *Service {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := New(badgerstore.New(db), users)
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc.now = c.now
	return svc
}

// failingRepo counts writes and fails every call with err.
type failingRepo struct {
	err     error
	inserts int
}

func (r *failingRepo) InsertMessage(context.Context, *domain.Message) error {
	r.inserts++
	return r.err
}
func (r *failingRepo) ListConversation(context.Context, string, string) ([]*domain.Message, error) {
	return nil, r.err
}
func (r *failingRepo) ListForUser(context.Context, string) ([]*domain.Message, error) {
	return nil, r.err
}
func (r *failingRepo) MarkRead(context.Context, string, string) (int, error) { return 0, r.err }
func (r *failingRepo) Ping(context.Context) error                            { return r.err }

var _ repository.Repository = (*failingRepo)(nil)

func TestAppend_StoresUnreadMessage(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	msg, err := svc.Append(ctx, "alice", "bob", "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Read)
	assert.Equal(t, time.UTC, msg.CreatedAt.Location())

	history, err := svc.ListConversation(ctx, "bob", "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, msg.ID, history[0].ID)
	assert.Equal(t, "hello", history[0].Body)
}

func TestAppend_Validation(t *testing.T) {
	tests := []struct {
		name      string
		sender    string
		recipient string
		body      string
		want      error
	}{
		{"missing sender", "", "bob", "hi", domain.ErrMissingSender},
		{"missing recipient", "alice", "", "hi", domain.ErrMissingRecipient},
		{"self message", "alice", "alice", "hi", domain.ErrSelfMessage},
		{"blank body", "alice", "bob", "  \n\t", domain.ErrEmptyBody},
		{"body too large", "alice", "bob", strings.Repeat("x", domain.MaxBodySize+1), domain.ErrBodyTooLarge},
		{"unknown sender", "mallory", "bob", "hi", domain.ErrUnknownUser},
		{"unknown recipient", "alice", "ghost", "hi", domain.ErrUnknownUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &failingRepo{}
			svc := New(repo, users)

			_, err := svc.Append(context.Background(), tt.sender, tt.recipient, tt.body)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Zero(t, repo.inserts, "nothing is written on validation failure")
		})
	}
}

func TestService_StorageFailures(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepo{err: errors.New("disk full")}
	svc := New(repo, users)

	_, err := svc.Append(ctx, "alice", "bob", "hi")
	assert.ErrorIs(t, err, domain.ErrStorage)

	_, err = svc.ListConversation(ctx, "alice", "bob")
	assert.ErrorIs(t, err, domain.ErrStorage)

	_, err = svc.Summarize(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrStorage)

	_, err = svc.MarkRead(ctx, "alice", "bob")
	var se *domain.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "mark read", se.Op)
	assert.Equal(t, 1, repo.inserts, "no retry")
}

func TestMarkRead_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	for _, body := range []string{"a", "b", "c"} {
		_, err := svc.Append(ctx, "alice", "bob", body)
		require.NoError(t, err)
	}
	_, err := svc.Append(ctx, "bob", "alice", "reply")
	require.NoError(t, err)

	n, err := svc.MarkRead(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = svc.MarkRead(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Zero(t, n)

	history, err := svc.ListConversation(ctx, "alice", "bob")
	require.NoError(t, err)
	for _, m := range history {
		assert.Equal(t, m.SenderID == "alice", m.Read, m.Body)
	}
}

func TestService_SeparatorInUserIDCannotReachOtherInbox(t *testing.T) {
	ctx := context.Background()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := New(badgerstore.New(db), profile.Open{})

	_, err = svc.Append(ctx, "bob", "victim", "legit")
	require.NoError(t, err)

	_, err = svc.Append(ctx, "mallory", "victim\x1fzzz", "injected")
	require.ErrorIs(t, err, domain.ErrInvalidUserID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	msgs, err := svc.ListForUser(ctx, "victim")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "legit", msgs[0].Body)

	inbox, err := svc.Summarize(ctx, "victim")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "bob", inbox[0].Counterpart.ID)

	_, err = svc.ListForUser(ctx, "victim\x1f")
	assert.ErrorIs(t, err, domain.ErrInvalidUserID)
	_, err = svc.MarkRead(ctx, "mallory", "victim\x1fzzz")
	assert.ErrorIs(t, err, domain.ErrInvalidUserID)
}
