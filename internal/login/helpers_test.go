package login

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/identify"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/oidc"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/otp"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/user/entity"
)

type sentCode struct{ dialCode, phone string }

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, dialCode, phone string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, sentCode{dialCode, phone})
	return nil
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

// stillTicker never fires; tests drive the countdown through Intent.Tick.
type stillTicker struct{ ch chan time.Time }

func (s stillTicker) C() <-chan time.Time { return s.ch }
func (s stillTicker) Stop()               {}

func newStillTicker(time.Duration) identify.Ticker { return stillTicker{ch: make(chan time.Time)} }

type fakeUsers struct {
	passwords map[string]string
	phones    map[string]int64
	err       error
}

func (f *fakeUsers) AuthenticatePassword(_ context.Context, identifier, password string) (*entity.MinimalAuthView, error) {
	if f.err != nil {
		return nil, f.err
	}
	pw, ok := f.passwords[identifier]
	if !ok || pw != password {
		return nil, user.ErrBadCredentials
	}
	return &entity.MinimalAuthView{ID: 7}, nil
}

func (f *fakeUsers) AuthenticatePhone(_ context.Context, phone string) (*entity.MinimalAuthView, error) {
	id, ok := f.phones[phone]
	if !ok {
		return nil, user.ErrBadCredentials
	}
	p := phone
	return &entity.MinimalAuthView{ID: id, PhoneNumber: &p, PhoneVerified: true}, nil
}

type fakeCodes struct {
	code string
	err  error
}

func (f *fakeCodes) Verify(_ context.Context, _, _, code string) error {
	if f.err != nil {
		return f.err
	}
	if code != f.code {
		return otp.ErrInvalidCode
	}
	return nil
}

type fakeTokens struct {
	audience string
	userID   int64
}

func (f *fakeTokens) IssueTokens(_ context.Context, u *entity.MinimalAuthView, audience string) (*oidc.TokenSet, error) {
	f.audience, f.userID = audience, u.ID
	return &oidc.TokenSet{AccessToken: "access", IDToken: "id", RefreshToken: "refresh", TokenType: "Bearer", ExpiresIn: 900}, nil
}

type fakeTheme string

func (f fakeTheme) RealmDisplayName(context.Context, string) string { return string(f) }

type testEnv struct {
	handler    *Handler
	mux        *http.ServeMux
	sessions   *session.Store
	dispatcher *fakeDispatcher
	users      *fakeUsers
	codes      *fakeCodes
	tokens     *fakeTokens
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		dispatcher: &fakeDispatcher{},
		users: &fakeUsers{
			passwords: map[string]string{"asha@example.com": "s3cret!", "asha": "s3cret!"},
			phones:    map[string]int64{"+919876543210": 42},
		},
		codes:  &fakeCodes{code: "123456"},
		tokens: &fakeTokens{},
	}
	env.sessions = session.NewStore(time.Minute, func() *identify.Intent {
		return identify.New(identify.Options{Dispatcher: env.dispatcher, NewTicker: newStillTicker})
	}, nil)
	t.Cleanup(env.sessions.Close)

	env.handler = NewHandler(Options{
		Sessions: env.sessions,
		Users:    env.users,
		Codes:    env.codes,
		Tokens:   env.tokens,
		Config:   Config{SuccessURL: "/app"},
	})
	env.mux = http.NewServeMux()
	env.handler.Register(env.mux)
	return env
}

// post sends a form as a browser would, or as a script when asJSON is set.
func (e *testEnv) post(t *testing.T, sess *session.Session, path string, form url.Values, asJSON bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if asJSON {
		req.Header.Set("Accept", "application/json")
	}
	if sess != nil {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sess.ID})
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(t *testing.T, sess *session.Session, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sess != nil {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sess.ID})
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func cookieFrom(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	require.Failf(t, "cookie not set", "%s", name)
	return nil
}
