package domain

import (
	"strings"
	"time"
	"unicode"
)

const MaxBodySize = 5000

// Message Invariants:
// 1. SenderID != RecipientID, Body is never blank.
// 2. Immutable after creation except Read, which only moves false -> true.
// 3. CreatedAt is the ordering key; ties fall back to ID (UUIDv7, insertion ordered).
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Body        string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
	Read        bool      `json:"read"`
}

func NewMessage(id, senderID, recipientID, body string, now time.Time) (*Message, error) {
	switch {
	case senderID == "":
		return nil, ErrMissingSender
	case recipientID == "":
		return nil, ErrMissingRecipient
	case senderID == recipientID:
		return nil, ErrSelfMessage
	case CheckUserIDs(senderID, recipientID) != nil:
		return nil, ErrInvalidUserID
	case strings.TrimSpace(body) == "":
		return nil, ErrEmptyBody
	case len(body) > MaxBodySize:
		return nil, ErrBodyTooLarge
	}

	return &Message{
		ID:          id,
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   now.UTC().Truncate(time.Microsecond),
	}, nil
}

// Counterpart returns the participant of m that is not userID.
func (m *Message) Counterpart(userID string) string {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

// PairKey identifies the conversation between a and b regardless of direction.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// CheckUserIDs rejects ids carrying control characters. Stores build index
// keys from user ids with a control byte as separator.
func CheckUserIDs(ids ...string) error {
	for _, id := range ids {
		if strings.IndexFunc(id, unicode.IsControl) >= 0 {
			return ErrInvalidUserID
		}
	}
	return nil
}
