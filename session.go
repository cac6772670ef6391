package authclient

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// SessionStore is the single source of truth for "who is logged in".
// State changes notify subscribers synchronously, in registration
// order. A listener must not mutate the store from inside its own
// callback; notification is re-entrant-unsafe and such a mutation can
// recurse without bound.
type SessionStore struct {
	mu      sync.Mutex
	storage Storage
	logger  Logger
	now     func() time.Time

	user          *User
	authenticated bool
	loading       bool
	lastError     string

	listeners []*listenerEntry
}

type listenerEntry struct {
	fn SessionListener
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithSessionLogger overrides the store's logger.
func WithSessionLogger(logger Logger) SessionOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSessionClock injects a custom clock (useful for tests).
func WithSessionClock(clock func() time.Time) SessionOption {
	return func(s *SessionStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewSessionStore builds the store and attempts rehydration: if durable
// storage holds a non-expired token and a parseable user, the session
// starts authenticated without a network call. Malformed or stale
// persisted state is purged, never fatal.
func NewSessionStore(storage Storage, opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		storage: storage,
		logger:  defLogger{},
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.rehydrate()

	return s
}

func (s *SessionStore) rehydrate() {
	ctx := context.Background()

	token, err := readAliased(ctx, s.storage, StorageKeyToken, legacyKeyToken)
	if err != nil {
		if !IsKeyNotFound(err) {
			s.logger.Warn("session rehydration read failed: %v", err)
		}
		return
	}

	if isTokenExpiredAt(token, s.now()) {
		s.logger.Info("stored token is expired, purging session state")
		s.purge(ctx)
		return
	}

	raw, err := readAliased(ctx, s.storage, StorageKeyUser, legacyKeyUser)
	if err != nil {
		// Token without a user is a partial write, self-heal.
		s.purge(ctx)
		return
	}

	user := &User{}
	if err := json.Unmarshal([]byte(raw), user); err != nil || user.ID == "" || user.Email == "" {
		s.logger.Warn("stored user record is malformed, purging session state")
		s.purge(ctx)
		return
	}

	s.user = user
	s.authenticated = true
}

func (s *SessionStore) purge(ctx context.Context) {
	if err := purgeSession(ctx, s.storage); err != nil {
		s.logger.Warn("session purge failed: %v", err)
	}
}

// GetUser returns the authenticated principal, or nil.
func (s *SessionStore) GetUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// IsAuthenticated reports whether a user is logged in. False whenever
// GetUser is nil.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// IsLoading reports whether a credential operation is in flight.
func (s *SessionStore) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// GetError returns the message of the most recent failed operation, or
// the empty string.
func (s *SessionStore) GetError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Subscribe registers a listener and immediately replays the current
// state to it. The returned function removes exactly one registration
// and is safe to call more than once. Registering the same listener
// twice results in two invocations per mutation.
func (s *SessionStore) Subscribe(fn SessionListener) func() {
	entry := &listenerEntry{fn: fn}

	s.mu.Lock()
	s.listeners = append(s.listeners, entry)
	user, authenticated := s.user, s.authenticated
	s.mu.Unlock()

	fn(user, authenticated)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, candidate := range s.listeners {
				if candidate == entry {
					s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// ClearError resets the last error and notifies subscribers.
func (s *SessionStore) ClearError() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
	s.notify()
}

func (s *SessionStore) setUser(user *User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	s.notify()
}

func (s *SessionStore) setAuthenticated(authenticated bool) {
	s.mu.Lock()
	s.authenticated = authenticated
	s.mu.Unlock()
	s.notify()
}

func (s *SessionStore) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
	s.notify()
}

func (s *SessionStore) setError(message string) {
	s.mu.Lock()
	s.lastError = message
	s.mu.Unlock()
	s.notify()
}

// clearAuth tears the session down to its unauthenticated state. Two
// notifications fire, one per field, no batching.
func (s *SessionStore) clearAuth() {
	s.setUser(nil)
	s.setAuthenticated(false)
}

func (s *SessionStore) notify() {
	s.mu.Lock()
	snapshot := make([]*listenerEntry, len(s.listeners))
	copy(snapshot, s.listeners)
	user, authenticated := s.user, s.authenticated
	s.mu.Unlock()

	for _, entry := range snapshot {
		entry.fn(user, authenticated)
	}
}
