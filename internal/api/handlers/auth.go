package handlers

import (
	"net/http"
	"time"

	"threatdash/internal/api/middleware"
	"threatdash/internal/domain/apperr"
	"threatdash/internal/domain/models"
	"threatdash/internal/domain/services"
	"threatdash/pkg/logger"
)

// AuthHandler handles account and session endpoints
type AuthHandler struct {
	auth    *services.AuthService
	maxBody int64
	logger  *logger.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth *services.AuthService, maxBody int64, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		maxBody: maxBody,
		logger:  log.WithComponent("auth-handler"),
	}
}

type authError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MeResponse is returned by GET /api/auth/me
type MeResponse struct {
	Success bool     `json:"success"`
	User    userView `json:"user"`
}

type userView struct {
	models.PublicUser
	CreatedAt time.Time  `json:"createdAt,omitzero"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeBody(w, r, h.maxBody, "", &req); err != nil {
		h.fail(w, err, "Error registering user")
		return
	}

	res, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.fail(w, err, "Error registering user")
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, models.AuthResponse{
		Success: true,
		Message: "User registered successfully",
		Token:   res.Token,
		User:    res.User.Public(),
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeBody(w, r, h.maxBody, "", &req); err != nil {
		h.fail(w, err, "Error logging in")
		return
	}

	res, err := h.auth.Login(r.Context(), req)
	if err != nil {
		h.fail(w, err, "Error logging in")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, models.AuthResponse{
		Success: true,
		Message: "Login successful",
		Token:   res.Token,
		User:    res.User.Public(),
	})
}

// Me handles GET /api/auth/me. Requires the Authenticate middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.fail(w, apperr.Unauthorized("No token provided"), "")
		return
	}

	user, err := h.auth.Me(r.Context(), claims)
	if err != nil {
		h.fail(w, err, "Error fetching user")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, MeResponse{
		Success: true,
		User: userView{
			PublicUser: user.Public(),
			CreatedAt:  user.CreatedAt,
			LastLogin:  user.LastLogin,
		},
	})
}

// Logout handles POST /api/auth/logout. Requires the Authenticate middleware.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.fail(w, apperr.Unauthorized("No token provided"), "")
		return
	}

	if err := h.auth.Logout(r.Context(), claims); err != nil {
		h.fail(w, err, "Error logging out")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logout successful",
	})
}

func (h *AuthHandler) fail(w http.ResponseWriter, err error, fallback string) {
	e := apperr.As(err, fallback)
	if !e.Exposed() {
		h.logger.Error().Stack().Err(err).Msg(fallback)
	}
	respondJSON(w, h.logger, e.Status(), authError{Error: e.Label(), Message: e.Message})
}
