package auth

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-globalseller/internal/common"
	sessionentity "github.com/ovaphlow/pitchfork/service-globalseller/internal/session/entity"
	"github.com/ovaphlow/pitchfork/service-globalseller/internal/user/entity"
)

// Handler exposes HTTP endpoints for account operations.
type Handler struct {
	svc          *Service
	logger       *zap.SugaredLogger
	secureCookie bool
}

func NewHandler(svc *Service, logger *zap.SugaredLogger, secureCookie bool) *Handler {
	return &Handler{svc: svc, logger: logger, secureCookie: secureCookie}
}

// CredentialsRequest is the signup and login payload.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

// ChangePasswordRequest is the change-password payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// SessionResponse is returned by signup and login.
type SessionResponse struct {
	Account      entity.AccountView `json:"account"`
	SessionToken string             `json:"session_token"`
	ExpiresAt    time.Time          `json:"expires_at"`
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sess *sessionentity.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(h.logger, w, r, err)
		return
	}
	u, sess, err := h.svc.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		common.WriteError(h.logger, w, r, err)
		return
	}
	h.setSessionCookie(w, sess)
	common.WriteData(w, http.StatusCreated, SessionResponse{Account: u.View(), SessionToken: sess.ID, ExpiresAt: sess.ExpiresAt})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		// malformed credentials are reported like any other failed login
		h.logger.Debugw("invalid login payload", "err", err)
		common.WriteError(h.logger, w, r, common.ErrInvalidCredentials)
		return
	}
	u, sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		common.WriteError(h.logger, w, r, err)
		return
	}
	h.setSessionCookie(w, sess)
	common.WriteData(w, http.StatusOK, SessionResponse{Account: u.View(), SessionToken: sess.ID, ExpiresAt: sess.ExpiresAt})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.svc.Logout(r.Context(), TokenFromRequest(r))
	h.clearSessionCookie(w)
	common.WriteData(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me returns the account behind the current session. Requires RequireSession.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := AccountFromContext(r.Context())
	if !ok {
		common.WriteError(h.logger, w, r, common.ErrUnauthorized)
		return
	}
	common.WriteData(w, http.StatusOK, u.View())
}

// ChangePassword requires RequireSession.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := AccountFromContext(r.Context())
	if !ok {
		common.WriteError(h.logger, w, r, common.ErrUnauthorized)
		return
	}
	var req ChangePasswordRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(h.logger, w, r, err)
		return
	}
	if err := h.svc.ChangePassword(r.Context(), u.ID, req.CurrentPassword, req.NewPassword); err != nil {
		common.WriteError(h.logger, w, r, err)
		return
	}
	common.WriteData(w, http.StatusOK, map[string]string{"status": "password_changed"})
}
