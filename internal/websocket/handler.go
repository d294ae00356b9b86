// Package websocket is the push surface: clients join, send messages and
// mark conversations read over one JSON framed connection.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/gigmarket/messaging/internal/domain"
	"github.com/gigmarket/messaging/internal/middleware"
	"github.com/gigmarket/messaging/internal/observability"
	"github.com/gigmarket/messaging/internal/presence"
	"github.com/gigmarket/messaging/internal/transport"
)

var (
	errNotJoined    = fmt.Errorf("%w: join before sending commands", domain.ErrValidation)
	errWrongUser    = fmt.Errorf("%w: user does not match the authenticated session", domain.ErrValidation)
	errUnknownEvent = fmt.Errorf("%w: unknown event", domain.ErrValidation)
)

type Presence interface {
	Join(userID string, h presence.Handle)
	Leave(h presence.Handle)
}

type Sender interface {
	Send(ctx context.Context, senderID, recipientID, body string, origin presence.Handle) (*domain.EnrichedMessage, error)
}

type ReadMarker interface {
	MarkRead(ctx context.Context, from, to string) (int, error)
}

type Handler struct {
	presence Presence
	sender   Sender
	reads    ReadMarker
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[*Session]struct{}
	closing  bool
}

func NewHandler(p Presence, sender Sender, reads ReadMarker) *Handler {
	return &Handler{
		presence: p,
		sender:   sender,
		reads:    reads,
		sessions: make(map[*Session]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing user")
		return
	}

	log := observability.GetLogger(r.Context())
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("upgrade error", zap.Error(err))
		return
	}

	session := NewSession(uuid.NewString(), userID, conn)
	if !h.track(session) {
		session.CloseWithReason(websocket.CloseServiceRestart, "server shutting down")
		return
	}
	session.Start()
	log.Info("connected", zap.String("user_id", userID), zap.String("session_id", session.ID()))
	observability.WebSocketConnections.Inc()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go h.readLoop(context.WithoutCancel(r.Context()), session)
}

func (h *Handler) readLoop(ctx context.Context, s *Session) {
	defer func() {
		h.presence.Leave(s)
		s.Close()
		h.untrack(s)
		observability.GetLogger(ctx).Info("disconnected", zap.String("user_id", s.UserID), zap.String("session_id", s.ID()))
		observability.WebSocketConnections.Dec()
	}()

	for {
		_, raw, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				observability.GetLogger(ctx).Warn("read loop error", zap.String("user_id", s.UserID), zap.Error(err))
			}
			return
		}

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			s.Push(errorEvent("", fmt.Errorf("%w: invalid json", domain.ErrValidation)))
			continue
		}
		if err := h.dispatch(ctx, s, f); err != nil {
			s.Push(errorEvent(f.Event, err))
		}
	}
}

// Shutdown closes every open connection, joined or not, and refuses new
// upgrades. Hijacked connections are not covered by http.Server.Shutdown.
func (h *Handler) Shutdown() {
	h.mu.Lock()
	h.closing = true
	open := lo.Keys(h.sessions)
	h.mu.Unlock()

	for _, s := range open {
		s.CloseWithReason(websocket.CloseServiceRestart, "server shutting down")
	}
	observability.Log.Info("websocket handler closed", zap.Int("sessions", len(open)))
}

// Open returns the number of live connections.
func (h *Handler) Open() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Handler) track(s *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.sessions[s] = struct{}{}
	return true
}

func (h *Handler) untrack(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s)
	h.mu.Unlock()
}

// dispatch runs one client command. Commands from one connection are
// handled in arrival order.
func (h *Handler) dispatch(ctx context.Context, s *Session, f frame) error {
	switch f.Event {
	case cmdJoin:
		var cmd JoinCommand
		if err := decode(f.Data, &cmd); err != nil {
			return err
		}
		if cmd.UserID != s.UserID {
			return errWrongUser
		}
		h.presence.Join(cmd.UserID, s)
		s.joined = cmd.UserID
		return nil

	case cmdSendMessage:
		var cmd SendMessageCommand
		if err := decode(f.Data, &cmd); err != nil {
			return err
		}
		if s.joined == "" {
			return errNotJoined
		}
		if cmd.From != s.joined {
			return errWrongUser
		}
		_, err := h.sender.Send(ctx, cmd.From, cmd.To, cmd.Content, s)
		return err

	case cmdMarkRead:
		var cmd MarkReadCommand
		if err := decode(f.Data, &cmd); err != nil {
			return err
		}
		if s.joined == "" {
			return errNotJoined
		}
		if cmd.To != s.joined {
			return errWrongUser
		}
		_, err := h.reads.MarkRead(ctx, cmd.From, cmd.To)
		return err

	default:
		return fmt.Errorf("%w: %q", errUnknownEvent, f.Event)
	}
}

func decode(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return transport.Validate(dst)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: invalid json", domain.ErrValidation)
	}
	return transport.Validate(dst)
}

func errorEvent(cmd string, err error) domain.Event {
	status, _, msg := transport.Classify(err)
	if status >= http.StatusInternalServerError {
		observability.Log.Error("command failed", zap.String("event", cmd), zap.Error(err))
	}
	return domain.Event{
		Name: domain.EventError,
		Data: domain.ErrorNotice{Event: cmd, Message: msg},
	}
}
