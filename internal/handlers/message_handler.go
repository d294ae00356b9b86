package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gigmarket/messaging/internal/domain"
	"github.com/gigmarket/messaging/internal/middleware"
	"github.com/gigmarket/messaging/internal/presence"
	"github.com/gigmarket/messaging/internal/profile"
	"github.com/gigmarket/messaging/internal/transport"
)

const requestTimeout = 5 * time.Second

type MessageService interface {
	ListConversation(ctx context.Context, userA, userB string) ([]*domain.Message, error)
	Summarize(ctx context.Context, userID string) ([]domain.ConversationSummary, error)
}

type Sender interface {
	Send(ctx context.Context, senderID, recipientID, body string, origin presence.Handle) (*domain.EnrichedMessage, error)
}

type ReadMarker interface {
	MarkRead(ctx context.Context, from, to string) (int, error)
}

// MessageHandler serves the request/response message API. The caller is
// always the authenticated user.
type MessageHandler struct {
	messages MessageService
	sender   Sender
	reads    ReadMarker
	enricher *profile.Enricher
}

func NewMessageHandler(messages MessageService, sender Sender, reads ReadMarker, enricher *profile.Enricher) *MessageHandler {
	return &MessageHandler{messages: messages, sender: sender, reads: reads, enricher: enricher}
}

type sendMessageRequest struct {
	To      string `json:"to" validate:"required"`
	Content string `json:"content" validate:"required,max=5000"`
}

type markReadRequest struct {
	From string `json:"from" validate:"required"`
}

type inboxResponse struct {
	Total int                          `json:"total"`
	Chats []domain.ConversationSummary `json:"chats"`
}

// SendMessage POST /messages
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req sendMessageRequest
	if err := transport.DecodeJSON(r.Body, &req); err != nil {
		transport.DomainError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	msg, err := h.sender.Send(ctx, userID, req.To, req.Content, nil)
	if err != nil {
		transport.DomainError(ctx, w, err)
		return
	}

	transport.WriteJSON(w, http.StatusCreated, msg)
}

// GetConversation GET /messages/{otherUserId}
func (h *MessageHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	other := chi.URLParam(r, "otherUserId")

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	msgs, err := h.messages.ListConversation(ctx, userID, other)
	if err != nil {
		transport.DomainError(ctx, w, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, h.enricher.Messages(ctx, msgs))
}

// ListConversations GET /messages
func (h *MessageHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	chats, err := h.messages.Summarize(ctx, userID)
	if err != nil {
		transport.DomainError(ctx, w, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, inboxResponse{Total: len(chats), Chats: chats})
}

// MarkRead PUT /messages/mark-read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req markReadRequest
	if err := transport.DecodeJSON(r.Body, &req); err != nil {
		transport.DomainError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	n, err := h.reads.MarkRead(ctx, req.From, userID)
	if err != nil {
		transport.DomainError(ctx, w, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]int{"updated": n})
}
