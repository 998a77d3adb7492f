package otp

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("otp challenge not found")

// Store keeps challenges keyed by phone number and windowed counters.
type Store interface {
	// Save stores c under c.Phone until it expires, replacing any previous one.
	Save(ctx context.Context, c *Challenge) error
	// Get returns the challenge for phone or ErrNotFound.
	Get(ctx context.Context, phone string) (*Challenge, error)
	Delete(ctx context.Context, phone string) error
	// Incr bumps the counter key and returns the new value. The counter
	// starts its window on the first increment.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type counter struct {
	n         int64
	expiresAt time.Time
}

// MemoryStore is a Store for development and tests.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[string]Challenge
	counters   map[string]counter
	nowF       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		challenges: make(map[string]Challenge),
		counters:   make(map[string]counter),
		nowF:       time.Now,
	}
}

// WithClock replaces the time source. Meant for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.nowF = now
	return s
}

func (s *MemoryStore) Save(ctx context.Context, c *Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[c.Phone] = *c
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, phone string) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[phone]
	if !ok {
		return nil, ErrNotFound
	}
	if c.Expired(s.nowF()) {
		delete(s.challenges, phone)
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) Delete(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, phone)
	return nil
}

func (s *MemoryStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowF()
	c, ok := s.counters[key]
	if !ok || !c.expiresAt.After(now) {
		c = counter{expiresAt: now.Add(window)}
	}
	c.n++
	s.counters[key] = c
	return c.n, nil
}
