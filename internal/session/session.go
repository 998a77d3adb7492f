// Package session ties one login intent to one browser session.
package session

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/identify"
	"github.com/ovaphlow/pitchfork/service-login-go/pkg/utilities"
)

const (
	CookieName = "pitchfork_login"
	DefaultTTL = 15 * time.Minute
)

// Session owns the intent of one login page instance.
type Session struct {
	ID     string
	Intent *identify.Intent

	mu           sync.Mutex
	lastSeen     time.Time
	flash        string
	passwordStep bool
}

// SetFlash stores a message shown once on the next page render.
func (s *Session) SetFlash(msg string) {
	s.mu.Lock()
	s.flash = msg
	s.mu.Unlock()
}

// TakeFlash returns and clears the pending message.
func (s *Session) TakeFlash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.flash
	s.flash = ""
	return msg
}

// SetPasswordStep marks that the username was accepted and the page should ask for the password.
func (s *Session) SetPasswordStep(on bool) {
	s.mu.Lock()
	s.passwordStep = on
	s.mu.Unlock()
}

func (s *Session) PasswordStep() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passwordStep
}

// IntentFactory builds the intent of a new session.
type IntentFactory func() *identify.Intent

// Store keeps sessions in memory. Sessions idle longer than the TTL are
// reaped by the janitor and their intents closed.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	factory  IntentFactory
	logger   *zap.SugaredLogger
	nowF     func() time.Time

	// Secure marks the cookie Secure; set it when served over TLS.
	Secure bool

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewStore(ttl time.Duration, factory IntentFactory, logger *zap.SugaredLogger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		factory:  factory,
		logger:   logger,
		nowF:     time.Now,
	}
}

// Start runs the janitor every interval until Close.
func (s *Store) Start(interval time.Duration) {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				if n := s.Reap(); n > 0 {
					s.logger.Debugw("reaped login sessions", "count", n)
				}
			}
		}
	}()
}

// Create starts a new session with a fresh intent.
func (s *Store) Create() *Session {
	sess := &Session{ID: utilities.NewKSUID(), Intent: s.factory(), lastSeen: s.nowF()}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns a live session and refreshes its idle timer.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	now := s.nowF()
	sess.mu.Lock()
	expired := now.Sub(sess.lastSeen) > s.ttl
	if !expired {
		sess.lastSeen = now
	}
	sess.mu.Unlock()
	if expired {
		delete(s.sessions, id)
		go sess.Intent.Close()
		return nil, false
	}
	return sess, true
}

// Delete removes the session and closes its intent.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.Intent.Close()
	}
}

// Reap removes idle sessions and returns how many went away.
func (s *Store) Reap() int {
	now := s.nowF()
	var expired []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.lastSeen)
		sess.mu.Unlock()
		if idle > s.ttl {
			delete(s.sessions, id)
			expired = append(expired, sess)
		}
	}
	s.mu.Unlock()
	for _, sess := range expired {
		sess.Intent.Close()
	}
	return len(expired)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops the janitor and closes every intent.
func (s *Store) Close() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		stop, done := s.stop, s.done
		all := s.sessions
		s.sessions = make(map[string]*Session)
		s.mu.Unlock()
		if stop != nil {
			close(stop)
			<-done
		}
		for _, sess := range all {
			sess.Intent.Close()
		}
	})
}

// FromRequest returns the session named by the request cookie.
func (s *Store) FromRequest(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || !utilities.IsKSUID(c.Value) {
		return nil, false
	}
	return s.Get(c.Value)
}

// SetCookie binds the browser to sess.
func (s *Store) SetCookie(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/login",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (s *Store) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/login",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
