package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGate() *AdminGate {
	return NewAdminGate("admin", "admin123", "test-cookie-secret", 24*time.Hour, false, zap.NewNop())
}

// Feature: kitchen-store, Property 20: Only the configured admin credentials pass the gate
func TestProperty_AdminCredentials(t *testing.T) {
	properties := gopter.NewProperties(nil)
	gate := newTestGate()

	properties.Property("any other pair is rejected", prop.ForAll(
		func(username, password string) bool {
			expected := username == "admin" && password == "admin123"
			return gate.CheckCredentials(username, password) == expected
		},
		gen.OneGenOf(gen.Const("admin"), gen.AlphaString()),
		gen.OneGenOf(gen.Const("admin123"), gen.AlphaString()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAdminGate_LoginLogoutCycle(t *testing.T) {
	gate := newTestGate()
	protected := gate.RequireAdmin()(http.HandlerFunc(okHandler))

	w := httptest.NewRecorder()
	protected.ServeHTTP(w, httptest.NewRequest("GET", "/admin/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	require.NoError(t, gate.Login(w, httptest.NewRequest("POST", "/admin/login", nil)))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, AdminSessionName, cookies[0].Name)
	assert.Equal(t, 24*60*60, cookies[0].MaxAge)

	req := httptest.NewRequest("GET", "/admin/orders", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	require.NoError(t, gate.Logout(w, req))
	assert.True(t, w.Result().Cookies()[0].MaxAge < 0)
}

func TestAdminGate_RejectsForgedCookie(t *testing.T) {
	gate := newTestGate()
	other := NewAdminGate("admin", "admin123", "different-secret", time.Hour, false, zap.NewNop())

	w := httptest.NewRecorder()
	require.NoError(t, other.Login(w, httptest.NewRequest("POST", "/", nil)))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(w.Result().Cookies()[0])
	assert.False(t, gate.IsAuthenticated(req))

	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: AdminSessionName, Value: "garbage"})
	assert.False(t, gate.IsAuthenticated(req))
}

func TestAdminGate_CookieExpiresServerSide(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the cookie to expire")
	}
	gate := NewAdminGate("admin", "admin123", "test-cookie-secret", time.Second, false, zap.NewNop())

	w := httptest.NewRecorder()
	require.NoError(t, gate.Login(w, httptest.NewRequest("POST", "/admin/login", nil)))
	cookie := w.Result().Cookies()[0]
	assert.Equal(t, 1, cookie.MaxAge)

	req := httptest.NewRequest("GET", "/admin/orders", nil)
	req.AddCookie(cookie)
	require.True(t, gate.IsAuthenticated(req))

	// A client that ignores MaxAge and replays the cookie is still rejected.
	time.Sleep(2500 * time.Millisecond)
	req = httptest.NewRequest("GET", "/admin/orders", nil)
	req.AddCookie(cookie)
	assert.False(t, gate.IsAuthenticated(req))
}
