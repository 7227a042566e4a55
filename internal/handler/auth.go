package handler

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/dukerupert/cuidamed/internal/auth"
	"github.com/dukerupert/cuidamed/internal/model"
	"github.com/dukerupert/cuidamed/internal/store"
	"github.com/dukerupert/cuidamed/internal/websocket"
)

type AuthHandler struct {
	notifier

	users  *store.UserStore
	issuer *auth.Issuer
	logger *slog.Logger
}

func NewAuthHandler(us *store.UserStore, issuer *auth.Issuer, hub *websocket.Hub, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: us, issuer: issuer, notifier: notifier{hub}, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

func normalizeEmail(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", false
	}
	return s, true
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, u *model.User) {
	token, expires, err := h.issuer.Issue(u.ID)
	if err != nil {
		h.logger.Error("issue token", "user_id", u.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, status, tokenResponse{Token: token, ExpiresAt: expires, User: u})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email, ok := normalizeEmail(req.Email)
	if !ok {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	existing, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		h.logger.Error("register lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	u, err := h.users.Create(r.Context(), email, strings.TrimSpace(req.Name), hash)
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	h.logger.Info("user registered", "user_id", u.ID)
	h.respondWithToken(w, http.StatusCreated, u)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email, ok := normalizeEmail(req.Email)
	if !ok || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	// Same response for unknown email and wrong password
	if u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	h.respondWithToken(w, http.StatusOK, u)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByID(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email, ok := normalizeEmail(req.Email)
	if !ok {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if req.Password != "" && len(req.Password) < auth.MinPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	other, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	if other != nil && other.ID != userID {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	u, err := h.users.Update(r.Context(), userID, email, strings.TrimSpace(req.Name))
	if err != nil {
		h.logger.Error("update user", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err == nil {
			err = h.users.UpdatePassword(r.Context(), userID, hash)
		}
		if err != nil {
			h.logger.Error("update password", "user_id", userID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update password")
			return
		}
	}

	h.broadcast(userID, "user", "updated", userID, nil)
	writeJSON(w, http.StatusOK, u)
}

func (h *AuthHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if err := h.users.Delete(r.Context(), userID); err != nil {
		h.logger.Error("delete user", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	h.logger.Info("user deleted", "user_id", userID)
	h.broadcast(userID, "user", "deleted", userID, nil)
	w.WriteHeader(http.StatusNoContent)
}
