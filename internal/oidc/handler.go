package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/user/entity"
)

// Users is the part of the user service the token endpoint needs.
type Users interface {
	AuthenticatePassword(ctx context.Context, identifier, password string) (*entity.MinimalAuthView, error)
	GetMinimalAuthView(ctx context.Context, id int64) (*entity.MinimalAuthView, error)
}

type Handler struct {
	svc    *OIDCService
	users  Users
	logger *zap.SugaredLogger
}

func NewHandler(svc *OIDCService, users Users, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, users: users, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func oauthError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func (h *Handler) Discovery(w http.ResponseWriter, r *http.Request) {
	iss := h.svc.Issuer()
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                iss,
		"jwks_uri":                              iss + "/jwks.json",
		"token_endpoint":                        iss + "/token",
		"userinfo_endpoint":                     iss + "/userinfo",
		"revocation_endpoint":                   iss + "/revoke",
		"introspection_endpoint":                iss + "/introspect",
		"grant_types_supported":                 []string{"password", "refresh_token"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
		"subject_types_supported":               []string{"public"},
	})
}

func (h *Handler) JWKS(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.JWKS())
}

func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		oauthError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	clientID := r.Form.Get("client_id")
	switch r.Form.Get("grant_type") {
	case "password":
		u, err := h.users.AuthenticatePassword(r.Context(), r.Form.Get("username"), r.Form.Get("password"))
		if err != nil {
			h.logger.Debugw("password grant rejected", "err", err)
			oauthError(w, http.StatusUnauthorized, "invalid_grant")
			return
		}
		h.issue(w, r, u, clientID)
	case "refresh_token":
		rt := r.Form.Get("refresh_token")
		if rt == "" {
			oauthError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		session, ok := h.svc.ValidateRefreshToken(r.Context(), rt)
		if !ok {
			oauthError(w, http.StatusUnauthorized, "invalid_grant")
			return
		}
		v, err := h.users.GetMinimalAuthView(r.Context(), session.UserID)
		if err != nil {
			oauthError(w, http.StatusUnauthorized, "invalid_grant")
			return
		}
		// rotate: the old token must be gone before a new one is issued
		if err := h.svc.RevokeRefreshToken(r.Context(), rt); err != nil {
			oauthError(w, http.StatusUnauthorized, "invalid_grant")
			return
		}
		h.issue(w, r, v, session.ClientID)
	default:
		oauthError(w, http.StatusBadRequest, "unsupported_grant_type")
	}
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request, u *entity.MinimalAuthView, clientID string) {
	ts, err := h.svc.IssueTokens(r.Context(), u, clientID)
	if err != nil {
		h.logger.Warnw("issue tokens failed", "err", err)
		oauthError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func bearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) < len("bearer ") || !strings.EqualFold(auth[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[len("bearer "):])
}

func (h *Handler) Userinfo(w http.ResponseWriter, r *http.Request) {
	token := bearer(r)
	if token == "" {
		oauthError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	claims, err := h.svc.ParseToken(token)
	if err != nil {
		oauthError(w, http.StatusUnauthorized, "invalid_token")
		return
	}
	out := map[string]any{"sub": claims["sub"], "user_type": claims["user_type"]}
	// fresh lookup so verification flags reflect the current row
	var id int64
	if _, scanErr := fmt.Sscan(fmt.Sprint(claims["sub"]), &id); scanErr == nil {
		if v, err := h.users.GetMinimalAuthView(r.Context(), id); err == nil {
			out["email"] = v.Email
			out["email_verified"] = v.EmailVerified
			if v.PhoneNumber != nil {
				out["phone_number"] = *v.PhoneNumber
				out["phone_number_verified"] = v.PhoneVerified
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Revoke implements RFC 7009 token revocation for refresh tokens. The
// endpoint returns 200 even if the token is unknown.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		oauthError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	token := r.Form.Get("token")
	if token == "" {
		oauthError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := h.svc.RevokeRefreshToken(r.Context(), token); err != nil {
		h.logger.Debugw("revoke failed", "err", err)
	}
	w.WriteHeader(http.StatusOK)
}

// Introspect implements RFC 7662 for opaque refresh tokens and JWT access tokens.
func (h *Handler) Introspect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		oauthError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	token := r.Form.Get("token")
	if token == "" {
		oauthError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if sess, ok := h.svc.ValidateRefreshToken(r.Context(), token); ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"active":     true,
			"client_id":  sess.ClientID,
			"sub":        fmt.Sprintf("%d", sess.UserID),
			"exp":        sess.ExpiresAt.Unix(),
			"token_type": "refresh_token",
		})
		return
	}
	claims, err := h.svc.ParseToken(token)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	out := map[string]any{"active": true, "token_type": "access_token"}
	for _, k := range []string{"sub", "aud", "iss", "exp", "iat"} {
		if v, ok := claims[k]; ok {
			out[k] = v
		}
	}
	writeJSON(w, http.StatusOK, out)
}
