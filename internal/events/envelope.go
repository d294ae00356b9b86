// Package events defines the envelope published for downstream consumers
// (notifications, analytics) when messages are stored or read.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gigmarket/messaging/internal/domain"
)

const (
	TypeMessageSent  = "MESSAGE_SENT"
	TypeMessagesRead = "MESSAGES_READ"

	SchemaVersion = 1
)

type Envelope struct {
	EventType     string          `json:"event_type"`
	SchemaVersion int             `json:"schema_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

type MessageSent struct {
	Message *domain.Message `json:"message"`
}

type MessagesRead struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}

func Encode(eventType string, occurredAt time.Time, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return json.Marshal(Envelope{
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		OccurredAt:    occurredAt.UTC(),
		Payload:       raw,
	})
}

func Decode(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return env, nil
}

// Topic maps an event type to the kafka topic it is published on.
func Topic(prefix, eventType string) string {
	switch eventType {
	case TypeMessageSent:
		return prefix + ".message.sent"
	case TypeMessagesRead:
		return prefix + ".message.read"
	default:
		return ""
	}
}
