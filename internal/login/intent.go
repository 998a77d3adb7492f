package login

import (
	"errors"
	"net/http"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/identify"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/otp"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/session"
)

const msgSessionExpired = "Your session expired. Please start again."

// intentResponse is the JSON body of the intent endpoints.
type intentResponse struct {
	identify.View
	Error string `json:"error,omitempty"`
}

// IntentView returns the caller's intent as JSON.
func (h *Handler) IntentView(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.FromRequest(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": msgSessionExpired})
		return
	}
	writeJSON(w, http.StatusOK, intentResponse{View: sess.Intent.Snapshot()})
}

// transition applies the posted fields, runs op and answers with the new
// view (JSON) or a redirect back to the page.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(sess *session.Session) error) {
	sess, ok := h.sessions.FromRequest(r)
	if !ok {
		if wantsJSON(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": msgSessionExpired})
			return
		}
		http.Redirect(w, r, pathPage, http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.reply(w, r, sess, http.StatusBadRequest, "Invalid form.")
		return
	}
	sess.Intent.Apply(r.PostForm)
	if op != nil {
		if err := op(sess); err != nil {
			status, msg := intentError(err)
			h.logger.Debugw("intent transition rejected", "path", r.URL.Path, "err", err)
			h.reply(w, r, sess, status, msg)
			return
		}
	}
	h.reply(w, r, sess, http.StatusOK, "")
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request, sess *session.Session, status int, msg string) {
	if wantsJSON(r) {
		writeJSON(w, status, intentResponse{View: sess.Intent.Snapshot(), Error: msg})
		return
	}
	if msg != "" {
		sess.SetFlash(msg)
	}
	http.Redirect(w, r, pathPage, http.StatusSeeOther)
}

func intentError(err error) (int, string) {
	switch {
	case errors.Is(err, identify.ErrUnknownIdentifier):
		return http.StatusBadRequest, "Unknown sign-in method."
	case errors.Is(err, otp.ErrPhoneRequired):
		return http.StatusBadRequest, "Enter your phone number."
	case errors.Is(err, otp.ErrTooManySends):
		return http.StatusTooManyRequests, "Too many codes requested. Try again later."
	case errors.Is(err, identify.ErrCooldownActive):
		return http.StatusConflict, "Please wait before requesting another code."
	case errors.Is(err, identify.ErrNotPhone),
		errors.Is(err, identify.ErrAlreadyRequested),
		errors.Is(err, identify.ErrNotRequested):
		return http.StatusConflict, "That action is not available right now."
	case errors.Is(err, identify.ErrClosed):
		return http.StatusGone, msgSessionExpired
	default:
		return http.StatusBadGateway, "We could not send the code. Please try again."
	}
}

func (h *Handler) SelectTab(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(sess *session.Session) error {
		tab := r.PostForm.Get(fieldTab)
		if tab == "" {
			tab = r.PostForm.Get(identify.FieldSelectedIdentifierType)
		}
		return sess.Intent.Select(identify.Identifier(tab))
	})
}

func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(sess *session.Session) error {
		return sess.Intent.SendOTP(r.Context())
	})
}

func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(sess *session.Session) error {
		return sess.Intent.Resend(r.Context())
	})
}

func (h *Handler) ResetOTP(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(sess *session.Session) error {
		sess.Intent.ResetOTP()
		return nil
	})
}

// UpdateFields only applies the posted values: OTP edits, country picks and
// typed fields all travel this way.
func (h *Handler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, nil)
}
