package login

import (
	"errors"
	"net/http"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/identify"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/oidc"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/otp"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/user/entity"
)

const (
	AccessTokenCookie  = "pitchfork_access_token"
	RefreshTokenCookie = "pitchfork_refresh_token"

	msgInvalidForm = "Please check what you entered and try again."
	msgInvalidCode = "The code is invalid or has expired."
)

// Action authenticates a posted identifier form. Phone sign-ins verify the
// OTP first; username sign-ins without a password ask for it on the page.
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, nil, http.StatusBadRequest, msgInvalidForm)
		return
	}
	sess, hasSession := h.sessions.FromRequest(r)
	if hasSession {
		sess.Intent.Apply(r.PostForm)
	}

	form := r.PostForm
	if hasSession && form.Get(identify.FieldSelectedIdentifierType) == "" {
		// a bare post submits what the intent already holds
		if held, err := sess.Intent.Submission(); err == nil {
			form = held.Values()
			if pw := r.PostForm.Get(identify.FieldPassword); pw != "" {
				form.Set(identify.FieldPassword, pw)
			}
		}
	}

	sub, err := identify.ParseSubmission(form)
	if err != nil {
		h.logger.Debugw("login submission rejected", "err", err)
		h.fail(w, r, sess, http.StatusBadRequest, msgInvalidForm)
		return
	}

	var view *entity.MinimalAuthView
	switch s := sub.(type) {
	case identify.PhoneSubmission:
		if err := h.codes.Verify(r.Context(), s.DialCode, s.Phone, s.OTP); err != nil {
			status, msg := codeError(err)
			h.logger.Debugw("otp verification failed", "err", err)
			h.fail(w, r, sess, status, msg)
			return
		}
		view, err = h.users.AuthenticatePhone(r.Context(), s.E164())
	case identify.EmailSubmission:
		view, err = h.users.AuthenticatePassword(r.Context(), s.Email, s.Password)
	case identify.UsernameSubmission:
		if s.Password == "" {
			h.askPassword(w, r, sess)
			return
		}
		view, err = h.users.AuthenticatePassword(r.Context(), s.Username, s.Password)
	}
	if err != nil {
		status, msg := user.StatusFor(err)
		h.logger.Debugw("login failed", "identifier", sub.Identifier(), "err", err)
		h.fail(w, r, sess, status, msg)
		return
	}

	tokens, err := h.tokens.IssueTokens(r.Context(), view, h.cfg.ClientID)
	if err != nil {
		h.logger.Warnw("issue tokens failed", "err", err)
		h.fail(w, r, sess, http.StatusInternalServerError, "Sign-in failed. Please try again.")
		return
	}
	if hasSession {
		h.sessions.Delete(sess.ID)
	}
	h.sessions.ClearCookie(w)
	h.logger.Infow("login succeeded", "user_id", view.ID, "identifier", sub.Identifier())

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, tokens)
		return
	}
	h.setTokenCookies(w, tokens)
	http.Redirect(w, r, h.cfg.SuccessURL, http.StatusSeeOther)
}

func codeError(err error) (int, string) {
	switch {
	case errors.Is(err, otp.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "Too many wrong codes. Request a new one."
	case errors.Is(err, otp.ErrInvalidCode), errors.Is(err, otp.ErrExpired):
		return http.StatusUnauthorized, msgInvalidCode
	default:
		return http.StatusInternalServerError, "Sign-in failed. Please try again."
	}
}

func (h *Handler) askPassword(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{"step": "password"})
		return
	}
	if sess == nil {
		sess = h.sessions.Create()
		sess.Intent.Apply(r.PostForm)
		_ = sess.Intent.Select(identify.Username)
		h.sessions.SetCookie(w, sess)
	}
	sess.SetPasswordStep(true)
	http.Redirect(w, r, pathPage, http.StatusSeeOther)
}

// fail answers a rejected sign-in. Browsers get the page again with the
// message and everything typed so far, except passwords.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, sess *session.Session, status int, msg string) {
	if wantsJSON(r) {
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	if sess == nil {
		sess = h.sessions.Create()
		sess.Intent.Apply(r.PostForm)
		if id, err := identify.ParseIdentifier(r.PostForm.Get(identify.FieldSelectedIdentifierType)); err == nil {
			_ = sess.Intent.Select(id)
		}
		h.sessions.SetCookie(w, sess)
	}
	h.render(w, r, status, sess, msg)
}

func (h *Handler) setTokenCookies(w http.ResponseWriter, ts *oidc.TokenSet) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    ts.AccessToken,
		Path:     "/",
		MaxAge:   ts.ExpiresIn,
		HttpOnly: true,
		Secure:   h.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    ts.RefreshToken,
		Path:     "/pitchfork-login/oidc",
		MaxAge:   int(oidc.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
