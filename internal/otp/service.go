package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/identify"
)

var (
	ErrPhoneRequired   = errors.New("phone number required")
	ErrTooManySends    = errors.New("too many otp requests")
	ErrTooManyAttempts = errors.New("too many invalid otp attempts")
	ErrInvalidCode     = errors.New("invalid otp code")
	ErrExpired         = errors.New("otp expired or not requested")
)

// Config tunes issuing and verification.
type Config struct {
	TTL             time.Duration
	MaxSendsPerHour int
	MaxAttempts     int
}

func DefaultConfig() Config {
	return Config{TTL: 5 * time.Minute, MaxSendsPerHour: 5, MaxAttempts: 5}
}

// Service issues and verifies phone codes. It is the dispatcher behind the
// login page's "Send OTP" and "Resend OTP" actions.
type Service struct {
	store  Store
	sender Sender
	logger *zap.SugaredLogger
	cfg    Config
	nowF   func() time.Time
}

func NewService(store Store, sender Sender, logger *zap.SugaredLogger, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxSendsPerHour <= 0 {
		cfg.MaxSendsPerHour = def.MaxSendsPerHour
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{store: store, sender: sender, logger: logger, cfg: cfg, nowF: time.Now}
}

// Issue creates a challenge for the number and sends the code.
func (s *Service) Issue(ctx context.Context, dialCode, phone string) (*Challenge, error) {
	e164 := identify.E164(dialCode, phone)
	if e164 == "" || e164 == identify.E164(dialCode, "") {
		return nil, ErrPhoneRequired
	}
	n, err := s.store.Incr(ctx, "sends:"+e164, time.Hour)
	if err != nil {
		return nil, fmt.Errorf("count sends: %w", err)
	}
	if n > int64(s.cfg.MaxSendsPerHour) {
		return nil, ErrTooManySends
	}
	code, err := GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	now := s.nowF()
	c := &Challenge{
		ID:        uuid.NewString(),
		Phone:     e164,
		CodeHash:  HashCode(e164, code),
		ExpiresAt: now.Add(s.cfg.TTL),
		CreatedAt: now,
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save challenge: %w", err)
	}
	if err := s.sender.Send(ctx, e164, code); err != nil {
		_ = s.store.Delete(ctx, e164)
		return nil, fmt.Errorf("send otp: %w", err)
	}
	s.logger.Debugw("otp issued", "challenge_id", c.ID, "expires_at", c.ExpiresAt)
	return c, nil
}

// Dispatch satisfies identify.Dispatcher.
func (s *Service) Dispatch(ctx context.Context, dialCode, phone string) error {
	_, err := s.Issue(ctx, dialCode, phone)
	return err
}

// Verify checks a code for the number. A correct code is consumed.
func (s *Service) Verify(ctx context.Context, dialCode, phone, code string) error {
	e164 := identify.E164(dialCode, phone)
	c, err := s.store.Get(ctx, e164)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrExpired
		}
		return err
	}
	if c.Expired(s.nowF()) {
		return ErrExpired
	}
	attempts, err := s.store.Incr(ctx, "verify:"+c.ID, s.cfg.TTL)
	if err != nil {
		return fmt.Errorf("count attempts: %w", err)
	}
	if attempts > int64(s.cfg.MaxAttempts) {
		_ = s.store.Delete(ctx, e164)
		return ErrTooManyAttempts
	}
	if !CodeEqual(e164, code, c.CodeHash) {
		return ErrInvalidCode
	}
	if err := s.store.Delete(ctx, e164); err != nil {
		return fmt.Errorf("consume challenge: %w", err)
	}
	return nil
}
