package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/logging"
	"github.com/streamtube/backend/internal/models"
)

// AccessTokenCookie is the cookie carrying the signed access token.
const AccessTokenCookie = "accessToken"

// Authenticator resolves an access token to the user it identifies.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

// RequireAuth rejects requests without a valid access token and attaches the
// authenticated user to the request context. The token is read from the
// accessToken cookie, with an Authorization bearer header as fallback.
func RequireAuth(authn Authenticator, onReject http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			token := AccessTokenFromRequest(r)
			if token == "" {
				logger.Warn("missing access token", "path", r.URL.Path)
				onReject.ServeHTTP(w, r)
				return
			}

			user, err := authn.Authenticate(ctx, token)
			if err != nil {
				logger.Warn("access token rejected", "path", r.URL.Path, "error", err)
				onReject.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(ctx, user)))
		})
	}
}

// AccessTokenFromRequest extracts the access token from the cookie or the
// Authorization header.
func AccessTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}

	return ""
}
