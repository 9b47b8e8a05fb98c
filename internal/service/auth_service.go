package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kitchen-store/internal/domain"
	"kitchen-store/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the default cost factor for password hashing
	BcryptCost = 12

	MinPasswordLength = 6

	DefaultSessionTTL    = 30 * 24 * time.Hour
	DefaultResetTokenTTL = time.Hour

	ResetRequestedMessage = "If an account with that email exists, we have sent reset instructions."
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("not authenticated")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
)

// SignupInput carries the fields accepted at account creation
type SignupInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       *string
	DateOfBirth *string
}

// IssuedSession is a freshly minted session token for user
type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// AuthService defines the account and session operations
type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (*IssuedSession, error)
	Login(ctx context.Context, email, password string) (*IssuedSession, error)
	Logout(ctx context.Context, token string) error
	GetSession(ctx context.Context, token string) (*domain.Session, *domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, update domain.ProfileUpdate) (*domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// Claims are the signed contents of a session token
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthOption configures an AuthService
type AuthOption func(*authService)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) AuthOption {
	return func(s *authService) { s.now = now }
}

// WithBcryptCost overrides BcryptCost
func WithBcryptCost(cost int) AuthOption {
	return func(s *authService) { s.bcryptCost = cost }
}

func WithSessionTTL(ttl time.Duration) AuthOption {
	return func(s *authService) { s.sessionTTL = ttl }
}

func WithResetTokenTTL(ttl time.Duration) AuthOption {
	return func(s *authService) { s.resetTTL = ttl }
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	mailer      Mailer
	secret      []byte
	logger      *zap.Logger

	now        func() time.Time
	bcryptCost int
	sessionTTL time.Duration
	resetTTL   time.Duration
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	mailer Mailer,
	secret string,
	logger *zap.Logger,
	opts ...AuthOption,
) AuthService {
	s := &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		mailer:      mailer,
		secret:      []byte(secret),
		logger:      logger,
		now:         time.Now,
		bcryptCost:  BcryptCost,
		sessionTTL:  DefaultSessionTTL,
		resetTTL:    DefaultResetTokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates the account and logs the new user in
func (s *authService) Signup(ctx context.Context, input SignupInput) (*IssuedSession, error) {
	if len(input.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		DateOfBirth:  input.DateOfBirth,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique index on email decides races between concurrent signups.
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, repository.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueSession(ctx, user)
}

// Login verifies credentials without revealing which part was wrong
func (s *authService) Login(ctx context.Context, email, password string) (*IssuedSession, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(ctx, user)
}

// Logout deletes the server-side session. Unknown tokens are ignored.
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// GetSession resolves a bearer token to its session and user. Expiry is
// checked on read; expired rows stay in the table until cleanup.
func (s *authService) GetSession(ctx context.Context, token string) (*domain.Session, *domain.User, error) {
	if token == "" {
		return nil, nil, ErrInvalidSession
	}

	now := s.now()
	claims, err := s.parseToken(token, now)
	if err != nil {
		return nil, nil, ErrInvalidSession
	}

	session, err := s.sessionRepo.FindValid(ctx, token, now)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil, ErrInvalidSession
		}
		return nil, nil, fmt.Errorf("failed to find session: %w", err)
	}

	if session.UserID != claims.UserID {
		return nil, nil, ErrInvalidSession
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, ErrInvalidSession
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, ErrInvalidSession
	}

	return session, user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID int64, update domain.ProfileUpdate) (*domain.User, error) {
	if err := s.userRepo.UpdateProfile(ctx, userID, update, s.now()); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	return user, nil
}

// ForgotPassword issues a reset token when the email belongs to an account.
// Callers always respond with ResetRequestedMessage.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	now := s.now()
	token := uuid.NewString()
	if err := s.userRepo.SetResetToken(ctx, user.ID, token, now.Add(s.resetTTL), now); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		// The token is stored; a failed send only means the user asks again.
		s.logger.Error("Failed to send password reset email",
			zap.String("email", user.Email),
			zap.Error(err),
		)
	}

	return nil
}

// ResetPassword redeems token once and revokes every session of the user
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	now := s.now()
	user, err := s.userRepo.FindByResetToken(ctx, token, now)
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to find reset token: %w", err)
	}

	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.ResetPassword(ctx, user.ID, token, hash, now); err != nil {
		if errors.Is(err, repository.ErrResetTokenNotApplied) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	if _, err := s.sessionRepo.DeleteByUserID(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	return nil
}

func (s *authService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessionRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return n, nil
}

func (s *authService) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *authService) issueSession(ctx context.Context, user *domain.User) (*IssuedSession, error) {
	now := s.now()
	expiresAt := now.Add(s.sessionTTL)

	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	session := &domain.Session{
		UserID:       user.ID,
		SessionToken: token,
		ExpiresAt:    expiresAt,
		CreatedAt:    now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &IssuedSession{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) parseToken(token string, now time.Time) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
