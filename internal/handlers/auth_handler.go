package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"luckabet/internal/security"
	"luckabet/internal/service"
)

// AuthHandler handles registration, login, social sign-in and the password
// reset endpoints.
type AuthHandler struct {
	authService          *service.AuthService
	emailService         *service.EmailService
	csrf                 *security.CSRFGenerator
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
	log                  zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *service.AuthService, emailService *service.EmailService, csrf *security.CSRFGenerator, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		emailService:         emailService,
		csrf:                 csrf,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		log:                  log,
	}
}

type registerRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	PlayerName string `json:"playerName"`
	Email      string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Username   string `json:"username"`
	Role       string `json:"role"`
	PlayerName string `json:"playerName,omitempty"`
	CSRFToken  string `json:"csrfToken,omitempty"`
}

// Register creates an account and logs it straight in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	if _, err := h.authService.Register(req.Username, req.Password, req.PlayerName, req.Email); err != nil {
		respondError(w, h.log, err)
		return
	}

	h.login(w, r, req.Username, req.Password, http.StatusCreated)
}

// Login authenticates and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	h.login(w, r, req.Username, req.Password, http.StatusOK)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, username, password string, status int) {
	token, user, err := h.authService.Login(username, password)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	claims, err := h.authService.Signer().Parse(token)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	csrfToken, err := h.csrf.GenerateToken(claims.ID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, token, claims.ExpiresAt.Time))
	respondJSON(w, status, sessionResponse{
		Username:   user.Username,
		Role:       user.Role,
		PlayerName: claims.PlayerName,
		CSRFToken:  csrfToken,
	})
}

// Logout revokes the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(security.SessionCookieName); err == nil {
		if err := h.authService.Logout(cookie.Value); err != nil {
			respondError(w, h.log, err)
			return
		}
	}
	http.SetCookie(w, security.CreateDeleteCookie(r))
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me returns the authenticated user plus a fresh CSRF token. The SPA calls
// this on load to restore its session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	claims := GetClaimsFromContext(r.Context())
	if user == nil || claims == nil {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	csrfToken, err := h.csrf.GenerateToken(claims.ID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{
		Username:   user.Username,
		Role:       user.Role,
		PlayerName: claims.PlayerName,
		CSRFToken:  csrfToken,
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword mails out a reset link. The response never reveals whether
// the address has an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		badRequest(w, "email is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	if err := h.authService.RequestPasswordReset(ctx, h.emailService, req.Email); err != nil {
		h.log.Error().Err(err).Msg("password reset request failed")
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword sets a new password from a mailed token.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil || req.Token == "" {
		badRequest(w, "token and password are required")
		return
	}

	if err := h.authService.ResetPassword(req.Token, req.Password); err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
