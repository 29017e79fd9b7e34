package appMiddleware

import (
	"log/slog"
	"net/http"
	"strings"

	"notification_service/internal/auth"
	"notification_service/internal/handlers"
)

// AuthMiddleware guards routes behind a valid access token. Missing header,
// malformed header, bad signature, expiry and wrong token kind all produce
// the same 401 response.
func AuthMiddleware(tokens *auth.TokenService, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				handlers.WriteUnauthorized(w, r)
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenStr == authHeader || tokenStr == "" {
				handlers.WriteUnauthorized(w, r)
				return
			}

			claims, err := tokens.Verify(tokenStr, auth.TokenKindAccess)
			if err != nil {
				log.Debug("rejected access token", slog.Any("error", err))
				handlers.WriteUnauthorized(w, r)
				return
			}

			ctx := handlers.WithUserID(r.Context(), claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
