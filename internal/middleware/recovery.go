package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/gigmarket/messaging/internal/observability"
	"github.com/gigmarket/messaging/internal/transport"
)

func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					observability.GetLogger(r.Context()).Error("panic_recovered",
						zap.Any("error", rec),
						zap.String("request_id", RequestIDFromContext(r.Context())),
						zap.Stack("stack"),
					)

					transport.WriteError(
						w,
						http.StatusInternalServerError,
						"internal_error",
						"internal server error",
					)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
