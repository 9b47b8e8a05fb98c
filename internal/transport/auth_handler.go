package transport

import (
	"errors"
	"net/http"

	"kitchen-store/internal/domain"
	"kitchen-store/internal/middleware"
	"kitchen-store/internal/repository"
	"kitchen-store/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SignupRequest represents the signup request payload
type SignupRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=6"`
	FirstName   string  `json:"firstName" validate:"required"`
	LastName    string  `json:"lastName" validate:"required"`
	Phone       *string `json:"phone,omitempty"`
	DateOfBirth *string `json:"dateOfBirth,omitempty"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FirstName   string  `json:"firstName" validate:"required"`
	LastName    string  `json:"lastName" validate:"required"`
	Phone       *string `json:"phone,omitempty"`
	DateOfBirth *string `json:"dateOfBirth,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// UserProfile represents user profile data
type UserProfile struct {
	ID            int64   `json:"id"`
	Email         string  `json:"email"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Phone         *string `json:"phone,omitempty"`
	DateOfBirth   *string `json:"dateOfBirth,omitempty"`
	EmailVerified bool    `json:"emailVerified"`
}

// UserResponse wraps a profile with the outcome of the call
type UserResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	User    UserProfile `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func toUserProfile(u *domain.User) UserProfile {
	return UserProfile{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Phone:         u.Phone,
		DateOfBirth:   u.DateOfBirth,
		EmailVerified: u.EmailVerified,
	}
}

// AuthHandler handles HTTP requests for accounts and sessions
type AuthHandler struct {
	authService   service.AuthService
	logger        *zap.Logger
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler. secureCookies marks the session
// cookie Secure and should be set in production.
func NewAuthHandler(authService service.AuthService, logger *zap.Logger, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		logger:        logger,
		secureCookies: secureCookies,
	}
}

// RegisterRoutes registers all auth routes. rateLimit guards the credential
// endpoints and may be nil.
func (h *AuthHandler) RegisterRoutes(r chi.Router, requireSession, rateLimit func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if rateLimit != nil {
				r.Use(rateLimit)
			}
			r.Post("/signup", h.Signup)
			r.Post("/login", h.Login)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Post("/reset-password", h.ResetPassword)
		})

		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Get("/user", h.GetUser)
			r.Put("/user", h.UpdateUser)
		})
	})
}

// Signup creates an account and starts a session
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	issued, err := h.authService.Signup(r.Context(), service.SignupInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserAlreadyExists):
			middleware.RespondWithError(w, http.StatusConflict, "A user with this email already exists")
		case errors.Is(err, service.ErrPasswordTooShort):
			middleware.RespondWithError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		default:
			h.logger.Error("Signup failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	middleware.SetSessionCookie(w, issued.Token, issued.ExpiresAt, h.secureCookies)

	h.logger.Info("User signed up", zap.Int64("user_id", issued.User.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, UserResponse{
		Success: true,
		Message: "Account created successfully",
		User:    toUserProfile(issued.User),
	})
}

// Login authenticates a user and starts a session
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	issued, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			middleware.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	middleware.SetSessionCookie(w, issued.Token, issued.ExpiresAt, h.secureCookies)

	middleware.RespondWithJSON(w, http.StatusOK, UserResponse{
		Success: true,
		Message: "Login successful",
		User:    toUserProfile(issued.User),
	})
}

// Logout deletes the session, if any, and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r); token != "" {
		if err := h.authService.Logout(r.Context(), token); err != nil {
			h.logger.Error("Logout failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	middleware.ClearSessionCookie(w, h.secureCookies)
	middleware.RespondWithJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Logged out successfully"})
}

// GetUser returns the session user
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, UserResponse{Success: true, User: toUserProfile(user)})
}

// UpdateUser edits the session user's profile
func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req UpdateProfileRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), userID, domain.ProfileUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("Profile update failed", zap.Int64("user_id", userID), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, UserResponse{
		Success: true,
		Message: "Profile updated",
		User:    toUserProfile(user),
	})
}

// ForgotPassword issues a reset token. The response is the same whether or
// not the account exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	if err := h.authService.ForgotPassword(r.Context(), req.Email); err != nil {
		h.logger.Error("Forgot password failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: service.ResetRequestedMessage})
}

// ResetPassword redeems a reset token
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidResetToken):
			middleware.RespondWithError(w, http.StatusBadRequest, "Invalid or expired reset token")
		case errors.Is(err, service.ErrPasswordTooShort):
			middleware.RespondWithError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		default:
			h.logger.Error("Password reset failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{Message: "Password reset successfully"})
}
