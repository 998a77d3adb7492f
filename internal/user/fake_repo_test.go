package user

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/user/entity"
)

// memRepo is an in-memory Repository for service and handler tests.
type memRepo struct {
	mu     sync.Mutex
	users  map[int64]*entity.User
	nextID int64
}

func newMemRepo() *memRepo { return &memRepo{users: map[int64]*entity.User{}} }

func (m *memRepo) Create(_ context.Context, u *entity.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := *u
	cp.ID = m.nextID
	m.users[cp.ID] = &cp
	return cp.ID, nil
}

func (m *memRepo) find(match func(u *entity.User) bool) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func eq(p *string, s string) bool { return p != nil && *p == s }

func (m *memRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return eq(u.Email, email) })
}

func (m *memRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return eq(u.Username, username) })
}

func (m *memRepo) GetByPhone(_ context.Context, phone string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return eq(u.PhoneNumber, phone) })
}

func (m *memRepo) GetMinimalAuthView(_ context.Context, id int64) (*entity.MinimalAuthView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &entity.MinimalAuthView{
		ID: u.ID, UserType: u.UserType, Version: u.Version,
		Email: u.Email, EmailVerified: u.EmailVerified,
		PhoneNumber: u.PhoneNumber, PhoneVerified: u.PhoneVerified,
	}, nil
}

func (m *memRepo) IncrementFailedLogin(_ context.Context, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].LoginFailedAttempts++
	return m.users[id].LoginFailedAttempts, nil
}

func (m *memRepo) LockIfThreshold(_ context.Context, id int64, threshold int, lockMinutes int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	if u.Status != entity.StatusActive || u.LoginFailedAttempts < threshold {
		return false, nil
	}
	until := time.Now().Add(time.Duration(lockMinutes) * time.Minute)
	u.Status = entity.StatusLocked
	u.LockedUntil = &until
	return true, nil
}

func (m *memRepo) ResetLoginSuccess(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	u := m.users[id]
	u.LoginFailedAttempts = 0
	u.LastLoginAt = &now
	u.LockedUntil = nil
	return nil
}

func (m *memRepo) UnlockIfExpired(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	if u.Status == entity.StatusLocked && u.LockedUntil != nil && u.LockedUntil.Before(time.Now()) {
		u.Status = entity.StatusActive
		u.LockedUntil = nil
		return true, nil
	}
	return false, nil
}

func (m *memRepo) MarkPhoneVerified(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].PhoneVerified = true
	return nil
}

func (m *memRepo) UpdatePassword(_ context.Context, id int64, hash, algo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].PasswordHash = &hash
	m.users[id].PasswordAlgo = &algo
	return nil
}

func (m *memRepo) get(id int64) entity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.users[id]
}

func (m *memRepo) set(id int64, f func(u *entity.User)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(m.users[id])
}
