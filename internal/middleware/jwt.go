package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/gigmarket/messaging/internal/observability"
	"github.com/gigmarket/messaging/internal/transport"
)

var (
	errMissingToken = errors.New("missing token")
	errTokenFormat  = errors.New("invalid token format")
	errInvalidToken = errors.New("invalid token")
)

// JWT authenticates the caller from an HS256 bearer token. Browsers cannot
// set headers on a websocket handshake, so a token query parameter is
// accepted as well.
func JWT(secret, issuer, audience string) func(http.Handler) http.Handler {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	parser := jwt.NewParser(opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := extractToken(r)
			if err != nil {
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}

			sub, err := verifyToken(parser, tokenString, secret)
			if err != nil {
				observability.GetLogger(r.Context()).Debug("jwt rejected", zap.Error(err))
				transport.WriteError(w, http.StatusUnauthorized, "unauthorized", errInvalidToken.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(InjectUserID(r.Context(), sub)))
		})
	}
}

func extractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if q := r.URL.Query().Get("token"); q != "" {
			return q, nil
		}
		return "", errMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errTokenFormat
	}
	return token, nil
}

func verifyToken(parser *jwt.Parser, tokenString, secret string) (string, error) {
	claims := jwt.RegisteredClaims{}
	_, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}
