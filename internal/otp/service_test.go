package otp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (c *captureSender) Send(_ context.Context, phone, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.codes == nil {
		c.codes = map[string]string{}
	}
	c.codes[phone] = code
	return nil
}

func (c *captureSender) last(phone string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[phone]
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newServiceForTests(t *testing.T) (*Service, *captureSender, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	sender := &captureSender{}
	svc := NewService(NewMemoryStore().WithClock(clock.Now), sender, nil, DefaultConfig())
	svc.nowF = clock.Now
	return svc, sender, clock
}

func TestService_IssueAndVerify(t *testing.T) {
	svc, sender, _ := newServiceForTests(t)
	ctx := context.Background()

	c, err := svc.Issue(ctx, "+91", "98765 43210")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", c.Phone)
	assert.NotEmpty(t, c.ID)

	code := sender.last("+919876543210")
	require.Len(t, code, 6)

	require.NoError(t, svc.Verify(ctx, "+91", "9876543210", code))
	// codes are single use
	assert.ErrorIs(t, svc.Verify(ctx, "+91", "9876543210", code), ErrExpired)
}

func TestService_IssueRequiresNumber(t *testing.T) {
	svc, _, _ := newServiceForTests(t)

	_, err := svc.Issue(context.Background(), "+91", "")
	assert.ErrorIs(t, err, ErrPhoneRequired)
	assert.ErrorIs(t, svc.Dispatch(context.Background(), "", " - "), ErrPhoneRequired)
}

func TestService_VerifyWrongCode(t *testing.T) {
	svc, sender, _ := newServiceForTests(t)
	ctx := context.Background()
	_, err := svc.Issue(ctx, "+44", "7700900123")
	require.NoError(t, err)

	wrong := "000000"
	if sender.last("+447700900123") == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, svc.Verify(ctx, "+44", "7700900123", wrong), ErrInvalidCode)
}

func TestService_VerifyExpired(t *testing.T) {
	svc, sender, clock := newServiceForTests(t)
	ctx := context.Background()
	_, err := svc.Issue(ctx, "+44", "7700900123")
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)

	assert.ErrorIs(t, svc.Verify(ctx, "+44", "7700900123", sender.last("+447700900123")), ErrExpired)
}

func TestService_TooManyAttempts(t *testing.T) {
	svc, sender, _ := newServiceForTests(t)
	ctx := context.Background()
	_, err := svc.Issue(ctx, "+1", "5550001111")
	require.NoError(t, err)
	code := sender.last("+15550001111")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < svc.cfg.MaxAttempts; i++ {
		require.ErrorIs(t, svc.Verify(ctx, "+1", "5550001111", wrong), ErrInvalidCode)
	}
	assert.ErrorIs(t, svc.Verify(ctx, "+1", "5550001111", code), ErrTooManyAttempts)
	assert.ErrorIs(t, svc.Verify(ctx, "+1", "5550001111", code), ErrExpired)
}

func TestService_TooManySends(t *testing.T) {
	svc, _, clock := newServiceForTests(t)
	ctx := context.Background()

	for i := 0; i < svc.cfg.MaxSendsPerHour; i++ {
		_, err := svc.Issue(ctx, "+1", "5550001111")
		require.NoError(t, err)
	}
	_, err := svc.Issue(ctx, "+1", "5550001111")
	assert.ErrorIs(t, err, ErrTooManySends)

	clock.Advance(time.Hour + time.Second)
	_, err = svc.Issue(ctx, "+1", "5550001111")
	assert.NoError(t, err)
}

func TestService_SendFailureDropsChallenge(t *testing.T) {
	svc, sender, _ := newServiceForTests(t)
	sender.err = errors.New("gateway down")

	err := svc.Dispatch(context.Background(), "+1", "5550001111")

	assert.ErrorIs(t, err, sender.err)
	_, getErr := svc.store.Get(context.Background(), "+15550001111")
	assert.ErrorIs(t, getErr, ErrNotFound)
}

func TestService_ReissueReplacesCode(t *testing.T) {
	svc, sender, _ := newServiceForTests(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, "+1", "5550001111")
	require.NoError(t, err)
	first := sender.last("+15550001111")
	_, err = svc.Issue(ctx, "+1", "5550001111")
	require.NoError(t, err)
	second := sender.last("+15550001111")

	if first != second {
		assert.ErrorIs(t, svc.Verify(ctx, "+1", "5550001111", first), ErrInvalidCode)
	}
	assert.NoError(t, svc.Verify(ctx, "+1", "5550001111", second))
}
