package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/identify"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/user/entity"
)

// PasswordHasher defines minimal hashing interface.
type PasswordHasher interface {
	Hash(pw string) (hash string, algo string, err error)
	Verify(hash, pw string) bool
	NeedsRehash(hash string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) cost() int {
	if b.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return b.Cost
}

func (b BcryptHasher) Hash(pw string) (string, string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), b.cost())
	if err != nil {
		return "", "", err
	}
	return string(h), fmt.Sprintf("bcrypt:%d", b.cost()), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// NeedsRehash reports whether hash was made with a lower cost than configured.
func (b BcryptHasher) NeedsRehash(hash string) bool {
	c, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}
	return c < b.cost()
}

// Repository is the storage the service needs. *repo.UserRepo implements it.
type Repository interface {
	Create(ctx context.Context, u *entity.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByPhone(ctx context.Context, phone string) (*entity.User, error)
	GetMinimalAuthView(ctx context.Context, id int64) (*entity.MinimalAuthView, error)
	IncrementFailedLogin(ctx context.Context, id int64) (int, error)
	LockIfThreshold(ctx context.Context, id int64, threshold int, lockMinutes int) (bool, error)
	ResetLoginSuccess(ctx context.Context, id int64) error
	UnlockIfExpired(ctx context.Context, id int64) (bool, error)
	MarkPhoneVerified(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, hash, algo string) error
}

// UserService orchestrates authentication and user lifecycle flows.
type UserService struct {
	repo   Repository
	hasher PasswordHasher
	// configuration knobs
	MaxFailed   int
	LockMinutes int
}

func NewUserService(r Repository, hasher PasswordHasher) *UserService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &UserService{repo: r, hasher: hasher, MaxFailed: 6, LockMinutes: 15}
}

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrLocked            = errors.New("user locked")
	ErrDisabled          = errors.New("user disabled")
	ErrBadCredentials    = errors.New("invalid credentials")
	ErrMustResetPassword = errors.New("must reset password")
	ErrIdentityRequired  = errors.New("username, email or phone required")
	ErrInvalidPhone      = errors.New("phone must be an international number such as +919876543210")
)

// checkStatus applies the lock and disable rules, unlocking expired locks.
func (s *UserService) checkStatus(ctx context.Context, u *entity.User) error {
	if u.Status == entity.StatusLocked && u.LockedUntil != nil && u.LockedUntil.Before(time.Now()) {
		if unlocked, _ := s.repo.UnlockIfExpired(ctx, u.ID); unlocked {
			u.Status = entity.StatusActive
			u.LockedUntil = nil
		}
	}
	switch u.Status {
	case entity.StatusLocked:
		return ErrLocked
	case entity.StatusDisabled:
		return ErrDisabled
	}
	return nil
}

// AuthenticatePassword performs password authentication by email or username.
// Identifiers containing '@' are treated as email.
// On success resets counters and returns the user minimal auth view.
func (s *UserService) AuthenticatePassword(ctx context.Context, identifier, password string) (*entity.MinimalAuthView, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrBadCredentials
	}

	var u *entity.User
	var err error
	if strings.Contains(identifier, "@") {
		u, err = s.repo.GetByEmail(ctx, identifier)
	} else {
		u, err = s.repo.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCredentials
		} // avoid user enumeration
		return nil, err
	}

	if err := s.checkStatus(ctx, u); err != nil {
		return nil, err
	}
	if u.PasswordHash == nil || *u.PasswordHash == "" {
		return nil, ErrBadCredentials
	}

	if !s.hasher.Verify(*u.PasswordHash, password) {
		if _, incErr := s.repo.IncrementFailedLogin(ctx, u.ID); incErr == nil {
			_, _ = s.repo.LockIfThreshold(ctx, u.ID, s.MaxFailed, s.LockMinutes)
		}
		return nil, ErrBadCredentials
	}

	if err := s.repo.ResetLoginSuccess(ctx, u.ID); err != nil {
		return nil, err
	}
	if u.MustResetPassword {
		return nil, ErrMustResetPassword
	}

	if s.hasher.NeedsRehash(*u.PasswordHash) {
		if newHash, algo, hErr := s.hasher.Hash(password); hErr == nil {
			_ = s.repo.UpdatePassword(ctx, u.ID, newHash, algo)
		}
	}
	return s.repo.GetMinimalAuthView(ctx, u.ID)
}

// AuthenticatePhone signs in the owner of an E.164 number whose OTP has
// already been verified. The number becomes verified on first use.
func (s *UserService) AuthenticatePhone(ctx context.Context, phone string) (*entity.MinimalAuthView, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrBadCredentials
	}
	u, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if err := s.checkStatus(ctx, u); err != nil {
		return nil, err
	}
	if !u.PhoneVerified {
		if err := s.repo.MarkPhoneVerified(ctx, u.ID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.ResetLoginSuccess(ctx, u.ID); err != nil {
		return nil, err
	}
	return s.repo.GetMinimalAuthView(ctx, u.ID)
}

// SignupInput carries the fields accepted at signup. One of Username, Email
// or Phone is required; Password may be empty for phone-only accounts.
type SignupInput struct {
	Username  string
	Email     string
	Phone     string
	Password  string
	UserType  string
	MustReset bool
}

// normalizePhone stores numbers in the same E.164 form phone sign-in looks
// them up by. Signup carries no separate dial code, so the leading + is required.
func normalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	e := identify.E164("", raw)
	if !strings.HasPrefix(raw, "+") || len(e) < 8 || len(e) > 16 {
		return "", ErrInvalidPhone
	}
	for _, r := range raw[1:] {
		if !strings.ContainsRune("0123456789 -().", r) {
			return "", ErrInvalidPhone
		}
	}
	return e, nil
}

// SignupUser creates a user, hashing the password when one is given.
func (s *UserService) SignupUser(ctx context.Context, in SignupInput) (int64, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone, err := normalizePhone(in.Phone)
	if err != nil {
		return 0, err
	}
	if username == "" && email == "" && phone == "" {
		return 0, ErrIdentityRequired
	}
	if in.Password == "" && phone == "" {
		return 0, errors.New("password required")
	}
	u := &entity.User{
		MustResetPassword: in.MustReset,
		Status:            entity.StatusActive,
		Version:           1,
	}
	if username != "" {
		u.Username = &username
	}
	if email != "" {
		u.Email = &email
	}
	if phone != "" {
		u.PhoneNumber = &phone
	}
	if in.UserType != "" {
		ut := in.UserType
		u.UserType = &ut
	}
	if in.Password != "" {
		hash, algo, err := s.hasher.Hash(in.Password)
		if err != nil {
			return 0, err
		}
		u.PasswordHash = &hash
		u.PasswordAlgo = &algo
	}
	return s.repo.Create(ctx, u)
}

// GetMinimalAuthView retrieves the minimal projection for a user by ID.
func (s *UserService) GetMinimalAuthView(ctx context.Context, id int64) (*entity.MinimalAuthView, error) {
	v, err := s.repo.GetMinimalAuthView(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return v, err
}
