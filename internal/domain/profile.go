package domain

import "time"

type ProfileKind string

const (
	ProfileClient     ProfileKind = "client"
	ProfileFreelancer ProfileKind = "freelancer"
	ProfileNone       ProfileKind = "none"
)

// Profile is the minimal display identity attached to messages on the wire.
type Profile struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Kind         ProfileKind `json:"-"`
	ProfileImage *string     `json:"profileImage"`
}

// Anonymous is used when the directory has no record for id.
func Anonymous(id string) Profile {
	return Profile{ID: id, Kind: ProfileNone}
}

type EnrichedMessage struct {
	ID        string    `json:"id"`
	Sender    Profile   `json:"sender"`
	Recipient Profile   `json:"recipient"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConversationSummary is derived on every inbox read; it is never stored.
type ConversationSummary struct {
	Counterpart Profile         `json:"user"`
	LastMessage EnrichedMessage `json:"lastMessage"`
	UnreadCount int             `json:"unreadCount"`
}
