package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/gigmarket/messaging/internal/config"
	"github.com/gigmarket/messaging/internal/handlers"
	"github.com/gigmarket/messaging/internal/middleware"
	"github.com/gigmarket/messaging/internal/observability"
)

// NewRouter builds the public listener: the message API and the websocket
// endpoint. The socket route sits outside the tracing middleware since a
// hijacked connection never completes a span.
func NewRouter(cfg *config.Config, msgH *handlers.MessageHandler, wsH http.Handler, store observability.Pinger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(observability.MetricsMiddleware(cfg.ServiceName))
	r.Use(middleware.Recovery())

	r.Get("/health/live", observability.HealthLiveHandler)
	r.Get("/health/ready", observability.HealthReadyHandler(store))

	auth := middleware.JWT(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)

	r.With(auth).Get("/ws", wsH.ServeHTTP)

	r.Group(func(p chi.Router) {
		p.Use(otelhttp.NewMiddleware(cfg.ServiceName))
		p.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		p.Use(auth)

		p.Post("/messages", msgH.SendMessage)
		p.Get("/messages", msgH.ListConversations)
		p.Put("/messages/mark-read", msgH.MarkRead)
		p.Get("/messages/{otherUserId}", msgH.GetConversation)
	})

	return r
}
