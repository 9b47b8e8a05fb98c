package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"kitchen-store/internal/cart"
	"kitchen-store/internal/config"
	"kitchen-store/internal/database"
	custommiddleware "kitchen-store/internal/middleware"
	"kitchen-store/internal/paypal"
	"kitchen-store/internal/repository"
	"kitchen-store/internal/seed"
	"kitchen-store/internal/service"
	"kitchen-store/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Server is the application context: it owns the store handle and every
// component built on it.
type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sqlx.DB
	redis  *redis.Client
	auth   service.AuthService
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sqlx.DB) (*Server, error) {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, !cfg.Server.IsProduction()))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := database.Health(r.Context(), db)
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		sessionRepo,
		service.NewLogMailer(cfg.Server.SiteURL, logger),
		cfg.Session.Secret,
		logger,
		service.WithSessionTTL(time.Duration(cfg.Session.TTLDays)*24*time.Hour),
		service.WithResetTokenTTL(time.Duration(cfg.Session.ResetTokenTTLMinutes)*time.Minute),
	)
	catalogService := service.NewCatalogService(productRepo, categoryRepo)
	productService, err := service.NewProductService(productRepo)
	if err != nil {
		return nil, err
	}
	orderService := service.NewOrderService(orderRepo)
	checkoutService := service.NewCheckoutService(orderRepo, cfg.Checkout.OrderWriteMode, logger)

	paypalClient := paypal.NewClient(paypal.Config{
		ClientID:     cfg.PayPal.ClientID,
		ClientSecret: cfg.PayPal.ClientSecret,
		Mode:         cfg.PayPal.Mode,
		BaseURL:      cfg.PayPal.BaseURL,
	}, logger)
	if !paypalClient.Configured() {
		logger.Warn("PayPal credentials not configured, payment endpoints will return 503")
	}
	paymentService := service.NewPaymentService(paypalClient, checkoutService, service.PaymentSettings{
		Pricing: cart.Pricing{
			TaxRate:               cfg.Checkout.TaxRate,
			FreeShippingThreshold: cfg.Checkout.FreeShippingThreshold,
			FlatShipping:          cfg.Checkout.FlatShipping,
		},
		Currency:  cfg.PayPal.Currency,
		BrandName: cfg.PayPal.BrandName,
		SiteURL:   cfg.Server.SiteURL,
	})

	catalog, err := seed.DefaultCatalog()
	if err != nil {
		return nil, err
	}
	seeder := seed.NewSeeder(categoryRepo, productRepo, catalog, logger)

	adminGate := custommiddleware.NewAdminGate(
		cfg.Admin.Username,
		cfg.Admin.Password,
		cfg.Session.Secret,
		time.Duration(cfg.Admin.SessionHours)*time.Hour,
		cfg.Server.IsProduction(),
		logger,
	)

	server := &Server{
		config: cfg,
		logger: logger,
		db:     db,
		auth:   authService,
	}

	// Rate limiting is only active with redis
	var rateLimit func(http.Handler) http.Handler
	if cfg.Redis.Enabled {
		server.redis = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := server.redis.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, rate limiter will fail open", zap.Error(err))
		}
		cancel()

		rateLimit = custommiddleware.RateLimitMiddleware(server.redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
			KeyPrefix:         "ratelimit",
		}, logger)
	}

	// Initialize handlers
	authHandler := transport.NewAuthHandler(authService, logger, cfg.Server.IsProduction())
	catalogHandler := transport.NewCatalogHandler(catalogService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)
	adminHandler := transport.NewAdminHandler(adminGate, productService, orderService, catalogService, seeder, logger)
	paymentHandler := transport.NewPaymentHandler(paymentService, logger)

	requireSession := custommiddleware.RequireSession(authService, logger)
	optionalSession := custommiddleware.OptionalSession(authService, logger)

	// Register routes
	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, requireSession, rateLimit)
		catalogHandler.RegisterRoutes(r)
		orderHandler.RegisterRoutes(r)
		adminHandler.RegisterRoutes(r, rateLimit)
		paymentHandler.RegisterRoutes(r, optionalSession)
	})

	server.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server, nil
}

// SweepSessions deletes expired sessions every interval until ctx is done.
func (s *Server) SweepSessions(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.auth.CleanupExpiredSessions(ctx)
			if err != nil {
				s.logger.Error("Session sweep failed", zap.Error(err))
				continue
			}
			if deleted > 0 {
				s.logger.Info("Expired sessions removed", zap.Int64("deleted", deleted))
			}
		}
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
