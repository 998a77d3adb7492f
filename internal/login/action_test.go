package login

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/identify"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/oidc"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/otp"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/user"
)

const pathAction = "/login/action"

func emailForm(password string) url.Values {
	return url.Values{
		identify.FieldSelectedIdentifierType: {"email"},
		identify.FieldEmail:                  {"Asha@Example.com"},
		identify.FieldPassword:               {password},
	}
}

func verifyForm(code string) url.Values {
	f := phoneForm()
	f.Set(identify.FieldOTP, code)
	return f
}

func TestAction_EmailJSON(t *testing.T) {
	env := newTestEnv(t)
	sess := env.sessions.Create()

	rec := env.post(t, sess, pathAction, emailForm("s3cret!"), true)
	require.Equal(t, http.StatusOK, rec.Code)
	var ts oidc.TokenSet
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ts))
	assert.Equal(t, "access", ts.AccessToken)
	assert.Equal(t, "refresh", ts.RefreshToken)
	assert.Equal(t, "login", env.tokens.audience)

	_, ok := env.sessions.Get(sess.ID)
	assert.False(t, ok)
	assert.True(t, sess.Intent.Closed())
}

func TestAction_EmailRedirectsWithCookies(t *testing.T) {
	env := newTestEnv(t)
	sess := env.sessions.Create()

	rec := env.post(t, sess, pathAction, emailForm("s3cret!"), false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/app", rec.Header().Get("Location"))

	access := cookieFrom(t, rec, AccessTokenCookie)
	assert.Equal(t, "access", access.Value)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, 900, access.MaxAge)
	assert.Equal(t, "refresh", cookieFrom(t, rec, RefreshTokenCookie).Value)
	assert.Negative(t, cookieFrom(t, rec, session.CookieName).MaxAge)
}

func TestAction_BadPasswordRendersPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, nil, pathAction, emailForm("wrong"), false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `role="alert"`)
	assert.Contains(t, body, "invalid credentials")
	assert.Contains(t, body, `value="Asha@Example.com"`)
	assert.Contains(t, body, `name="selectedIdentifierType" value="email"`)
	assert.NotContains(t, body, "wrong")

	// the typed values survive in a fresh session
	c := cookieFrom(t, rec, session.CookieName)
	sess, ok := env.sessions.Get(c.Value)
	require.True(t, ok)
	assert.Equal(t, identify.Email, sess.Intent.Active())
}

func TestAction_AccountErrors(t *testing.T) {
	env := newTestEnv(t)
	env.users.err = user.ErrLocked

	rec := env.post(t, nil, pathAction, emailForm("s3cret!"), true)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"account locked"}`, rec.Body.String())
}

func TestAction_InvalidSubmission(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		form url.Values
	}{
		{"no identifier type", url.Values{identify.FieldEmail: {"asha@example.com"}, identify.FieldPassword: {"x"}}},
		{"bad email", url.Values{identify.FieldSelectedIdentifierType: {"email"}, identify.FieldEmail: {"asha"}, identify.FieldPassword: {"x"}}},
		{"short otp", verifyForm("123")},
		{"missing dial code", url.Values{identify.FieldSelectedIdentifierType: {"phone"}, identify.FieldPhone: {"9876543210"}, identify.FieldOTP: {"123456"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.post(t, nil, pathAction, tt.form, true)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, env.tokens.audience)
}

func TestAction_UsernameAsksForPassword(t *testing.T) {
	env := newTestEnv(t)
	sess := env.sessions.Create()
	require.NoError(t, sess.Intent.Select(identify.Username))
	form := url.Values{
		identify.FieldSelectedIdentifierType: {"username"},
		identify.FieldUsername:               {"asha"},
	}

	rec := env.post(t, sess, pathAction, form, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"step":"password"}`, rec.Body.String())

	rec = env.post(t, sess, pathAction, form, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, pathPage, rec.Header().Get("Location"))
	assert.True(t, sess.PasswordStep())
	assert.Equal(t, "asha", sess.Intent.Snapshot().Username)

	form.Set(identify.FieldPassword, "s3cret!")
	rec = env.post(t, sess, pathAction, form, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 7, env.tokens.userID)
}

func TestAction_UsernameStepWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, nil, pathAction, url.Values{
		identify.FieldSelectedIdentifierType: {"username"},
		identify.FieldUsername:               {"asha"},
	}, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	sess, ok := env.sessions.Get(cookieFrom(t, rec, session.CookieName).Value)
	require.True(t, ok)
	assert.True(t, sess.PasswordStep())
	assert.Equal(t, identify.Username, sess.Intent.Active())
}

func TestAction_PhoneVerifiesCode(t *testing.T) {
	env := newTestEnv(t)
	sess := env.sessions.Create()

	rec := env.post(t, sess, pathAction, verifyForm("123456"), true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 42, env.tokens.userID)
}

func TestAction_PhoneCodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"wrong code", nil, "654321", http.StatusUnauthorized},
		{"expired", otp.ErrExpired, "123456", http.StatusUnauthorized},
		{"too many attempts", otp.ErrTooManyAttempts, "123456", http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.codes.err = tt.err
			sess := env.sessions.Create()

			rec := env.post(t, sess, pathAction, verifyForm(tt.code), true)
			assert.Equal(t, tt.status, rec.Code)
			assert.Zero(t, env.tokens.userID)
			_, ok := env.sessions.Get(sess.ID)
			assert.True(t, ok)
		})
	}
}

func TestAction_PhoneInvalidCodeKeepsOTPStep(t *testing.T) {
	env := newTestEnv(t)
	sess := env.sessions.Create()
	sess.Intent.SetPhone("9876543210")
	require.NoError(t, sess.Intent.SendOTP(t.Context()))

	rec := env.post(t, sess, pathAction, verifyForm("654321"), false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, msgInvalidCode)
	assert.Contains(t, body, `name="otp"`)
	assert.Contains(t, body, `value="654321"`)
}

func TestAction_PhoneUnknownNumber(t *testing.T) {
	env := newTestEnv(t)
	sess := env.sessions.Create()
	form := verifyForm("123456")
	form.Set(identify.FieldPhone, "1111111111")

	rec := env.post(t, sess, pathAction, form, true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAction_BarePostSubmitsIntent(t *testing.T) {
	env := newTestEnv(t)
	sess := env.sessions.Create()
	sess.Intent.SetDialCode("+91")
	sess.Intent.SetPhone("9876543210")
	require.NoError(t, sess.Intent.SendOTP(t.Context()))
	sess.Intent.EditOTP("123456")

	rec := env.post(t, sess, pathAction, url.Values{}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 42, env.tokens.userID)
}

func TestAction_BarePostWithIncompleteCode(t *testing.T) {
	env := newTestEnv(t)
	sess := env.sessions.Create()
	sess.Intent.EditOTP("123")

	rec := env.post(t, sess, pathAction, url.Values{}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
