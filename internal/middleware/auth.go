package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"kitchen-store/internal/domain"

	"go.uber.org/zap"
)

type contextKey string

const (
	UserKey         contextKey = "user"
	SessionTokenKey contextKey = "session_token"

	// SessionCookieName carries the customer session token
	SessionCookieName = "session"
)

// SessionResolver maps a bearer token to its live session and user
type SessionResolver interface {
	GetSession(ctx context.Context, token string) (*domain.Session, *domain.User, error)
}

// SessionToken reads the token from the session cookie, falling back to an
// Authorization: Bearer header
func SessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func withSession(r *http.Request, token string, user *domain.User) *http.Request {
	ctx := context.WithValue(r.Context(), UserKey, user)
	ctx = context.WithValue(ctx, SessionTokenKey, token)
	return r.WithContext(ctx)
}

// RequireSession rejects requests without a valid customer session
func RequireSession(resolver SessionResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				logger.Debug("Missing session token")
				RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			_, user, err := resolver.GetSession(r.Context(), token)
			if err != nil {
				logger.Debug("Session rejected", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			logger.Debug("User authenticated", zap.Int64("user_id", user.ID))
			next.ServeHTTP(w, withSession(r, token, user))
		})
	}
}

// OptionalSession attaches the session user when one is present and lets
// every request through
func OptionalSession(resolver SessionResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token != "" {
				if _, user, err := resolver.GetSession(r.Context(), token); err == nil {
					r = withSession(r, token, user)
				} else {
					logger.Debug("Ignoring invalid session", zap.Error(err))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUser extracts the session user from request context
func GetUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserKey).(*domain.User)
	return user, ok && user != nil
}

// GetUserID extracts the session user's id from request context
func GetUserID(ctx context.Context) (int64, bool) {
	user, ok := GetUser(ctx)
	if !ok {
		return 0, false
	}
	return user.ID, true
}

// SetSessionCookie stores token in an HttpOnly cookie that expires with the session
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
