package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Handler exposes HTTP endpoints for user operations (signup / login).
type Handler struct {
	svc    *UserService
	logger *zap.SugaredLogger
}

func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// SignupRequest request body for signup endpoint.
type SignupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	UserType  string `json:"user_type"`
	MustReset bool   `json:"must_reset"`
}

// SignupResponse response body containing new user id.
type SignupResponse struct {
	ID int64 `json:"id"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid signup payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	id, err := h.svc.SignupUser(r.Context(), SignupInput{
		Username:  req.Username,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		UserType:  req.UserType,
		MustReset: req.MustReset,
	})
	if err != nil {
		if errors.Is(err, ErrIdentityRequired) || errors.Is(err, ErrInvalidPhone) {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		h.logger.Warnw("signup failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "signup failed"})
		return
	}
	h.writeJSON(w, http.StatusCreated, SignupResponse{ID: id})
}

// LoginRequest login payload.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	view, err := h.svc.AuthenticatePassword(r.Context(), req.Identifier, req.Password)
	if err != nil {
		h.logger.Debugw("login failed", "err", err)
		status, msg := StatusFor(err)
		h.writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// StatusFor maps authentication errors to an HTTP status and a public message.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadCredentials), errors.Is(err, ErrMustResetPassword):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, ErrLocked):
		return http.StatusForbidden, "account locked"
	case errors.Is(err, ErrDisabled):
		return http.StatusForbidden, "account disabled"
	default:
		return http.StatusInternalServerError, "login failed"
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
