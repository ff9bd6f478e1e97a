package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// AuthHandler handles registration, sign-in and account recovery.
type AuthHandler struct {
	auth   service.AuthService
	users  service.UserService
	cookie middleware.SessionCookie
	logger zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth service.AuthService, users service.UserService, cookie middleware.SessionCookie, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		users:  users,
		cookie: cookie,
		logger: logger.With().Str("handler", "auth").Logger(),
	}
}

// Register handles POST /api/auth/register. Field validation happens in the
// service, after the email has been checked.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, err, h.logger)
		return
	}

	session, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	h.startSession(w, http.StatusCreated, session)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	session, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	h.startSession(w, http.StatusOK, session)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	h.auth.Logout(r.Context(), user.ID)
	h.cookie.Clear(w)
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Logged out"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.UserFromContext(r.Context()))
}

// UpdateDetails handles PUT /api/auth/updatedetails.
func (h *AuthHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}
	// Password changes go through UpdatePassword, which checks the current one.
	req.Password = ""

	user, err := h.users.UpdateProfile(r.Context(), middleware.UserFromContext(r.Context()).ID, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdatePassword handles PUT /api/auth/updatepassword.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req model.UpdatePasswordRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	session, err := h.auth.UpdatePassword(r.Context(), middleware.UserFromContext(r.Context()), &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	h.startSession(w, http.StatusOK, session)
}

// ForgotPassword handles POST /api/auth/forgot-password. The answer does not
// reveal whether the address has an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.EmailRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{
		Success: true,
		Message: "If an account exists with this email, a password reset link has been sent",
	})
}

// ResetPassword handles PUT /api/auth/reset-password/{token}.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	session, err := h.auth.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	h.startSession(w, http.StatusOK, session)
}

// VerifyEmail handles GET /api/auth/verify-email/{token}.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Email verified successfully"})
}

// ResendVerification handles POST /api/auth/resend-verification.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.ResendVerification(r.Context(), middleware.UserFromContext(r.Context())); err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Verification email sent"})
}

// CheckEmail handles POST /api/auth/check-email.
func (h *AuthHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	var req model.EmailRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	available, err := h.auth.CheckEmailAvailable(r.Context(), req.Email)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

// DeleteAccount handles DELETE /api/auth/deleteaccount.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.DeleteAccount(r.Context(), middleware.UserFromContext(r.Context()).ID); err != nil {
		writeError(w, err, h.logger)
		return
	}
	h.cookie.Clear(w)
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Account deactivated"})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, status int, session *model.AuthResponse) {
	h.cookie.Set(w, session.Token, session.ExpiresAt)
	writeJSON(w, status, session)
}
