package api

import (
	"chatbox-backend/internal/auth"
	"chatbox-backend/pkg/httputil"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// --- JWT Middleware ---

// JwtAuthMiddleware verifies the JWT token from the Authorization header.
// Websocket upgrade requests may pass the token as ?token= instead, since
// browsers cannot set headers on websocket handshakes.
// If valid, it injects the UserID into the request context.
func JwtAuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("auth_middleware")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				logger.Debug("missing or malformed Authorization header", zap.String("path", r.URL.Path))
				httputil.RespondError(w, http.StatusUnauthorized, "Authorization header required (Expected: Bearer <token>)")
				return
			}

			claims, err := auth.ParseAccessToken(tokenString, jwtSecret)
			if err != nil {
				logger.Info("rejected token", zap.String("path", r.URL.Path), zap.Error(err))
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					httputil.RespondError(w, http.StatusUnauthorized, "Token has expired")
				case errors.Is(err, jwt.ErrTokenMalformed):
					httputil.RespondError(w, http.StatusUnauthorized, "Malformed token")
				default:
					httputil.RespondError(w, http.StatusUnauthorized, "Invalid token")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), claims.UserID)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if isWebsocketUpgrade(r) {
		if token := r.URL.Query().Get("token"); token != "" {
			return token, true
		}
	}
	return "", false
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
