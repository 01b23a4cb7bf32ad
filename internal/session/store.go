package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AlexMobiCraft/freesport-storefront/internal/domain"
	apperrors "github.com/AlexMobiCraft/freesport-storefront/pkg/errors"
)

const refreshKeyPrefix = "session:refresh:"

// Store is the single source of truth for a session's credentials and
// profile. Access tokens and profiles live in memory only; the refresh token
// is persisted in Redis under a single key per session so a session survives
// a storefront restart. Construct it explicitly and pass it down — there is
// no package-level instance.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*state
	rdb      *redis.Client
	ttl      time.Duration
}

type state struct {
	accessToken string
	user        *domain.User
}

// NewStore creates a session store backed by the given Redis client. ttl
// bounds how long a persisted refresh token stays valid without use.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*state),
		rdb:      rdb,
		ttl:      ttl,
	}
}

// SetTokens replaces both tokens for the session. The refresh token is
// persisted durably; the access token stays in memory. Token shape is not
// validated — the API is trusted to issue well-formed credentials.
func (s *Store) SetTokens(ctx context.Context, sessionID, access, refresh string) error {
	s.mu.Lock()
	st := s.sessions[sessionID]
	if st == nil {
		st = &state{}
		s.sessions[sessionID] = st
	}
	st.accessToken = access
	s.mu.Unlock()

	if err := s.rdb.Set(ctx, refreshKeyPrefix+sessionID, refresh, s.ttl).Err(); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}
	return nil
}

// SetAccessToken replaces only the in-memory access token, leaving the
// persisted refresh token untouched. Used after a refresh exchange, which
// returns a new access token only.
func (s *Store) SetAccessToken(sessionID, access string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.sessions[sessionID]
	if st == nil {
		st = &state{}
		s.sessions[sessionID] = st
	}
	st.accessToken = access
}

// SetUser replaces the cached profile. The caller is trusted; no cross-check
// against the token's claimed identity is performed.
func (s *Store) SetUser(sessionID string, user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.sessions[sessionID]
	if st == nil {
		st = &state{}
		s.sessions[sessionID] = st
	}
	st.user = user
}

// AccessToken returns the in-memory access token for the session, if any.
func (s *Store) AccessToken(sessionID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.sessions[sessionID]
	if st == nil || st.accessToken == "" {
		return "", false
	}
	return st.accessToken, true
}

// User returns the cached profile for the session, if any.
func (s *Store) User(sessionID string) (*domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.sessions[sessionID]
	if st == nil || st.user == nil {
		return nil, false
	}
	return st.user, true
}

// RefreshToken returns the durable refresh token for the session, or
// ErrNotFound when none is stored.
func (s *Store) RefreshToken(ctx context.Context, sessionID string) (string, error) {
	token, err := s.rdb.Get(ctx, refreshKeyPrefix+sessionID).Result()
	if err != nil {
		if err == redis.Nil {
			return "", apperrors.NotFound("refresh token", sessionID)
		}
		return "", fmt.Errorf("load refresh token: %w", err)
	}
	return token, nil
}

// IsAuthenticated reports whether the session currently holds an access
// token. This is derived state, never stored.
func (s *Store) IsAuthenticated(sessionID string) bool {
	_, ok := s.AccessToken(sessionID)
	return ok
}

// HasSession reports whether the session holds any live credential: an
// in-memory access token, or a durable refresh token that a new process can
// mint one from. Navigation checks use this so a session survives a
// storefront restart; a Redis error degrades to the in-memory answer.
func (s *Store) HasSession(ctx context.Context, sessionID string) bool {
	if s.IsAuthenticated(sessionID) {
		return true
	}
	n, err := s.rdb.Exists(ctx, refreshKeyPrefix+sessionID).Result()
	return err == nil && n > 0
}

// Logout clears both tokens, the profile, and the durable refresh entry.
// Afterwards IsAuthenticated reports false.
func (s *Store) Logout(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if err := s.rdb.Del(ctx, refreshKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}
