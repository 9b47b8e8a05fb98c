package middleware

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	AdminSessionName = "admin-session"
	adminFlag        = "authenticated"
)

// AdminGate guards the operator surface with a single shared username and
// password. A successful login sets one boolean flag in a signed cookie.
type AdminGate struct {
	username string
	password string
	store    *sessions.CookieStore
	logger   *zap.Logger
}

// NewAdminGate builds a gate whose cookie is signed with secret and lives
// for ttl
func NewAdminGate(username, password, secret string, ttl time.Duration, secure bool, logger *zap.Logger) *AdminGate {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	// Sets the cookie MaxAge and the signature expiry checked on decode.
	store.MaxAge(int(ttl.Seconds()))

	return &AdminGate{
		username: username,
		password: password,
		store:    store,
		logger:   logger,
	}
}

// CheckCredentials compares in constant time
func (g *AdminGate) CheckCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	return userOK && passOK
}

// Login sets the admin flag on the response cookie
func (g *AdminGate) Login(w http.ResponseWriter, r *http.Request) error {
	// A cookie that no longer decodes is replaced by a fresh session.
	session, _ := g.store.Get(r, AdminSessionName)
	session.Values[adminFlag] = true
	return session.Save(r, w)
}

// Logout expires the admin cookie
func (g *AdminGate) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := g.store.Get(r, AdminSessionName)
	session.Values = map[interface{}]interface{}{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// IsAuthenticated reports whether the request carries a valid admin cookie
func (g *AdminGate) IsAuthenticated(r *http.Request) bool {
	session, err := g.store.Get(r, AdminSessionName)
	if err != nil {
		return false
	}
	ok, _ := session.Values[adminFlag].(bool)
	return ok
}

// RequireAdmin middleware rejects requests without the admin cookie
func (g *AdminGate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.IsAuthenticated(r) {
				g.logger.Warn("Unauthenticated admin request",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
