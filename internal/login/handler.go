// Package login serves the identifier-selection login page and the HTTP
// surface of its intent.
package login

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	g "maragu.dev/gomponents"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/identify"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/oidc"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/user/entity"
)

// Authenticator resolves credentials to a user. *user.UserService implements it.
type Authenticator interface {
	AuthenticatePassword(ctx context.Context, identifier, password string) (*entity.MinimalAuthView, error)
	AuthenticatePhone(ctx context.Context, phone string) (*entity.MinimalAuthView, error)
}

// CodeVerifier checks a one-time passcode. *otp.Service implements it.
type CodeVerifier interface {
	Verify(ctx context.Context, dialCode, phone, code string) error
}

// TokenIssuer signs tokens for an authenticated user. *oidc.OIDCService implements it.
type TokenIssuer interface {
	IssueTokens(ctx context.Context, u *entity.MinimalAuthView, audience string) (*oidc.TokenSet, error)
}

// Theme supplies the page header. *setting.Service implements it.
type Theme interface {
	RealmDisplayName(ctx context.Context, fallback string) string
}

type Config struct {
	// ActionURL is where the identifier form posts. Defaults to /login/action.
	ActionURL string
	// SuccessURL receives the browser after a successful sign-in.
	SuccessURL string
	// ClientID is the audience of tokens issued by the login action.
	ClientID string
	// Secure marks token cookies Secure.
	Secure bool
}

type Options struct {
	Sessions *session.Store
	Users    Authenticator
	Codes    CodeVerifier
	Tokens   TokenIssuer
	Theme    Theme
	Logger   *zap.SugaredLogger
	Config   Config
}

type Handler struct {
	sessions *session.Store
	users    Authenticator
	codes    CodeVerifier
	tokens   TokenIssuer
	theme    Theme
	logger   *zap.SugaredLogger
	cfg      Config
	upgrader websocket.Upgrader
}

func NewHandler(opts Options) *Handler {
	cfg := opts.Config
	if cfg.ActionURL == "" {
		cfg.ActionURL = "/login/action"
	}
	if cfg.SuccessURL == "" {
		cfg.SuccessURL = "/"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "login"
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{
		sessions: opts.Sessions,
		users:    opts.Users,
		codes:    opts.Codes,
		tokens:   opts.Tokens,
		theme:    opts.Theme,
		logger:   logger,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameOrigin,
		},
	}
}

// Register mounts the page, intent and action routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+pathPage, h.Page)
	mux.HandleFunc("GET "+pathIntent, h.IntentView)
	mux.HandleFunc("POST "+pathTab, h.SelectTab)
	mux.HandleFunc("POST "+pathSendOTP, h.SendOTP)
	mux.HandleFunc("POST "+pathResendOTP, h.ResendOTP)
	mux.HandleFunc("POST "+pathResetOTP, h.ResetOTP)
	mux.HandleFunc("POST "+pathEditOTP, h.UpdateFields)
	mux.HandleFunc("POST "+pathCountry, h.UpdateFields)
	mux.HandleFunc("POST "+pathFields, h.UpdateFields)
	mux.HandleFunc("GET "+pathStream, h.Stream)
	mux.HandleFunc("GET "+pathCountries, h.Countries)
	mux.Handle("GET "+pathStatic, Static())
	if strings.HasPrefix(h.cfg.ActionURL, "/") {
		mux.HandleFunc("POST "+h.cfg.ActionURL, h.Action)
	}
}

// Page renders the login page for the caller's session, starting one if needed.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.FromRequest(r)
	if !ok {
		sess = h.sessions.Create()
		h.sessions.SetCookie(w, sess)
	}
	w.Header().Set("Cache-Control", "no-store")
	h.render(w, r, http.StatusOK, sess, sess.TakeFlash())
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, sess *session.Session, flash string) {
	realm := realmFallback
	if h.theme != nil {
		realm = h.theme.RealmDisplayName(r.Context(), realmFallback)
	}
	d := pageData{
		Realm:        realm,
		View:         sess.Intent.Snapshot(),
		Flash:        flash,
		PasswordStep: sess.PasswordStep(),
		ActionURL:    h.cfg.ActionURL,
		Countries:    identify.Countries(),
	}
	writeHTML(w, status, page(d), h.logger)
}

// Countries returns the catalog entries matching ?q= by name, code or
// calling code.
func (h *Handler) Countries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, identify.SearchCountries(r.URL.Query().Get("q")))
}

func writeHTML(w http.ResponseWriter, status int, n g.Node, logger *zap.SugaredLogger) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := n.Render(w); err != nil {
		logger.Warnw("render page failed", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// sameOrigin accepts websocket upgrades from pages served by this host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	origin = strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
	return strings.EqualFold(origin, r.Host)
}
