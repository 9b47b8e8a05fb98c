package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"kitchen-store/internal/cart"
	"kitchen-store/internal/config"
	"kitchen-store/internal/database"
	"kitchen-store/internal/middleware"
	"kitchen-store/internal/paypal"
	"kitchen-store/internal/repository"
	"kitchen-store/internal/seed"
	"kitchen-store/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAdminUser     = "admin"
	testAdminPassword = "admin123"
)

type captureMailer struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *captureMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = make(map[string]string)
	}
	m.tokens[email] = token
	return nil
}

func (m *captureMailer) tokenFor(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[email]
}

type testEnv struct {
	router     chi.Router
	mailer     *captureMailer
	orders     repository.OrderRepository
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

// newTestEnv wires every handler over a fresh sqlite store, the way the
// server does. A nil gateway becomes an unconfigured PayPal client.
func newTestEnv(t *testing.T, gateway service.PaymentGateway) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	if gateway == nil {
		gateway = paypal.NewClient(paypal.Config{}, logger)
	}

	db, err := database.Open(config.DatabaseConfig{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "api.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.RunMigrations(db.DB, db.DriverName(), logger))

	env := &testEnv{
		mailer:     &captureMailer{},
		orders:     repository.NewOrderRepository(db),
		products:   repository.NewProductRepository(db),
		categories: repository.NewCategoryRepository(db),
	}

	authService := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		env.mailer,
		"test-secret",
		logger,
		service.WithBcryptCost(bcrypt.MinCost),
	)
	catalogService := service.NewCatalogService(env.products, env.categories)
	productService, err := service.NewProductService(env.products)
	require.NoError(t, err)
	orderService := service.NewOrderService(env.orders)
	checkout := service.NewCheckoutService(env.orders, config.OrderWriteBestEffort, logger)
	payments := service.NewPaymentService(gateway, checkout, service.PaymentSettings{
		Pricing:   cart.DefaultPricing(),
		Currency:  "USD",
		BrandName: "Kitchen Store",
		SiteURL:   "http://localhost:3000",
	})

	gate := middleware.NewAdminGate(testAdminUser, testAdminPassword, "cookie-secret", time.Hour, false, logger)
	seeder := seed.NewSeeder(env.categories, env.products, smallCatalog(), logger)

	r := chi.NewRouter()
	r.Use(middleware.ErrorHandlingMiddleware(logger))
	r.Route("/api", func(r chi.Router) {
		NewAuthHandler(authService, logger, false).RegisterRoutes(r, middleware.RequireSession(authService, logger), nil)
		NewCatalogHandler(catalogService, logger).RegisterRoutes(r)
		NewOrderHandler(orderService, logger).RegisterRoutes(r)
		NewAdminHandler(gate, productService, orderService, catalogService, seeder, logger).RegisterRoutes(r, nil)
		NewPaymentHandler(payments, logger).RegisterRoutes(r, middleware.OptionalSession(authService, logger))
	})
	env.router = r

	return env
}

// do sends a JSON request. body may be nil, a string of raw JSON, or any
// value to be marshalled.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	_, err := seed.NewSeeder(e.categories, e.products, smallCatalog(), zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
}

func (e *testEnv) adminCookie(t *testing.T) *http.Cookie {
	t.Helper()
	w := e.do(t, "POST", "/api/admin/login", map[string]string{"username": testAdminUser, "password": testAdminPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return findCookie(t, w, middleware.AdminSessionName)
}

func findCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp middleware.ErrorResponse
	decodeBody(t, w, &resp)
	return resp.Error.Message
}
