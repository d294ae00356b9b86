// Package badgerstore is an embedded message store for single-node deployments.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/gigmarket/messaging/internal/domain"
)

const (
	sep        = "\x1f"
	maxRetries = 5
)

var errClosed = errors.New("badger store closed")

type Store struct {
	db *badger.DB
}

func Open(path string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return New(db), nil
}

func New(db *badger.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return domain.NewStorageError("ping", errClosed)
	}
	return ctx.Err()
}

// Index keys embed the zero padded creation time so that a prefix scan
// returns messages in (CreatedAt, ID) order. User ids never contain sep;
// every entry point rejects them with domain.ErrInvalidUserID.
//
//	msg    id
//	pair   lo hi ts id
//	user   uid ts id
//	unread to from ts id
func key(parts ...string) []byte {
	return []byte(strings.Join(parts, sep))
}

func prefix(parts ...string) []byte {
	return []byte(strings.Join(parts, sep) + sep)
}

func stamp(m *domain.Message) string {
	return fmt.Sprintf("%019d", m.CreatedAt.UnixNano())
}

func pairPrefix(a, b string) []byte {
	if a > b {
		a, b = b, a
	}
	return prefix("pair", a, b)
}

func msgKey(id string) []byte { return key("msg", id) }

func (s *Store) InsertMessage(ctx context.Context, msg *domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := domain.CheckUserIDs(msg.SenderID, msg.RecipientID); err != nil {
		return err
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ts := stamp(msg)
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(msgKey(msg.ID), value); err != nil {
			return err
		}
		idx := [][]byte{
			append(pairPrefix(msg.SenderID, msg.RecipientID), key(ts, msg.ID)...),
			key("user", msg.SenderID, ts, msg.ID),
			key("user", msg.RecipientID, ts, msg.ID),
		}
		if !msg.Read {
			idx = append(idx, key("unread", msg.RecipientID, msg.SenderID, ts, msg.ID))
		}
		for _, k := range idx {
			if err := txn.Set(k, nil); err != nil {
				return err
			}
		}
		return nil
	})
	return domain.NewStorageError("insert message", err)
}

func (s *Store) ListConversation(ctx context.Context, a, b string) ([]*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := domain.CheckUserIDs(a, b); err != nil {
		return nil, err
	}
	msgs, err := s.scan(pairPrefix(a, b), false)
	if err != nil {
		return nil, domain.NewStorageError("list conversation", err)
	}
	return msgs, nil
}

func (s *Store) ListForUser(ctx context.Context, userID string) ([]*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := domain.CheckUserIDs(userID); err != nil {
		return nil, err
	}
	msgs, err := s.scan(prefix("user", userID), true)
	if err != nil {
		return nil, domain.NewStorageError("list for user", err)
	}
	return msgs, nil
}

func (s *Store) MarkRead(ctx context.Context, from, to string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := domain.CheckUserIDs(from, to); err != nil {
		return 0, err
	}

	var count int
	var err error
	for i := 0; i < maxRetries; i++ {
		count, err = s.markRead(from, to)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return 0, domain.NewStorageError("mark read", err)
	}
	return count, nil
}

func (s *Store) markRead(from, to string) (int, error) {
	count := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		p := prefix("unread", to, from)
		var keys [][]byte
		it := txn.NewIterator(badger.IteratorOptions{Prefix: p})
		for it.Rewind(); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, k := range keys {
			id := lastPart(k)
			msg, err := get(txn, id)
			if err != nil {
				return err
			}
			if !msg.Read {
				msg.Read = true
				value, err := json.Marshal(msg)
				if err != nil {
					return err
				}
				if err := txn.Set(msgKey(id), value); err != nil {
					return err
				}
				count++
			}
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) scan(p []byte, reverse bool) ([]*domain.Message, error) {
	msgs := []*domain.Message{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.IteratorOptions{Prefix: p, Reverse: reverse}
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := p
		if reverse {
			seek = append(append([]byte{}, p...), 0xFF)
		}
		for it.Seek(seek); it.ValidForPrefix(p); it.Next() {
			msg, err := get(txn, lastPart(it.Item().Key()))
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func get(txn *badger.Txn, id string) (*domain.Message, error) {
	item, err := txn.Get(msgKey(id))
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", id, err)
	}
	var msg domain.Message
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &msg)
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func lastPart(k []byte) string {
	s := string(k)
	return s[strings.LastIndex(s, sep)+1:]
}
