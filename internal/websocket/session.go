package websocket

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gigmarket/messaging/internal/domain"
	"github.com/gigmarket/messaging/internal/observability"
)

const (
	SendQueueSize  = 128
	maxMessageSize = 16 << 10
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
)

// Session is one push connection. It satisfies presence.Handle.
type Session struct {
	id     string
	UserID string

	Conn      *websocket.Conn
	SendQueue chan []byte
	done      chan struct{}
	closed    atomic.Int32

	// joined is only touched by the read loop.
	joined string
}

func NewSession(id, userID string, conn *websocket.Conn) *Session {
	return &Session{
		id:        id,
		UserID:    userID,
		Conn:      conn,
		SendQueue: make(chan []byte, SendQueueSize),
		done:      make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Start() {
	go s.writeLoop()
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Push encodes ev as a JSON frame and queues it without blocking.
func (s *Session) Push(ev domain.Event) bool {
	payload, err := json.Marshal(ev)
	if err != nil {
		observability.Log.Error("session: encode event", zap.String("event", ev.Name), zap.Error(err))
		return false
	}
	return s.TrySend(payload)
}

func (s *Session) TrySend(msg []byte) bool {
	if s.closed.Load() == 1 {
		return false
	}
	select {
	case s.SendQueue <- msg:
		return true
	default:
		observability.Log.Warn("session: backpressure overflow, dropping connection",
			zap.String("session_id", s.id), zap.String("user_id", s.UserID))
		s.CloseWithReason(websocket.CloseTryAgainLater, "backpressure overflow")
		return false
	}
}

func (s *Session) Close() {
	s.CloseWithReason(websocket.CloseGoingAway, "server closing")
}

func (s *Session) CloseWithReason(code int, reason string) {
	if !s.closed.CompareAndSwap(0, 1) {
		return
	}

	observability.Log.Debug("session: closing",
		zap.String("session_id", s.id),
		zap.String("user_id", s.UserID),
		zap.Int("code", code),
		zap.String("reason", reason),
	)
	close(s.done)

	if s.Conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = s.Conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = s.Conn.Close()
	}
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case msg := <-s.SendQueue:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				observability.Log.Debug("session: write error", zap.String("session_id", s.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				observability.Log.Debug("session: ping error", zap.String("session_id", s.id), zap.Error(err))
				return
			}
		case <-s.done:
			return
		}
	}
}
