package identity

import (
	"context"
	"time"

	"github.com/tcmclinic/telemed/pkg/cache"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

// Session is the cached per-token record. It lets token resolution skip
// signature verification on the hot path.
type Session struct {
	UserID    string         `json:"user_id"`
	Role      types.UserRole `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
}

// SessionStore keeps sessions and revocation tombstones in the cache.
// With caching disabled every lookup misses and revocation is best-effort.
type SessionStore struct {
	cache  *cache.Cache
	logger *logger.Logger
}

// NewSessionStore creates a session store backed by the shared cache.
func NewSessionStore(c *cache.Cache, log *logger.Logger) *SessionStore {
	return &SessionStore{cache: c, logger: log}
}

// Get returns the cached session for a token, refreshing its TTL.
func (s *SessionStore) Get(ctx context.Context, token string) (*Session, bool) {
	var session Session
	if !s.cache.Get(ctx, cache.Keys.Session(token), &session) {
		return nil, false
	}
	if err := s.cache.Expire(ctx, cache.Keys.Session(token), cache.Day); err != nil {
		s.logger.WithError(err).Warn("Failed to refresh session TTL")
	}
	return &session, true
}

// Put caches a session record for the token.
func (s *SessionStore) Put(ctx context.Context, token string, session *Session) {
	if err := s.cache.Set(ctx, cache.Keys.Session(token), session, cache.Day); err != nil {
		s.logger.WithError(err).Warn("Failed to cache session")
	}
}

// Revoked reports whether the token carries a revocation tombstone.
func (s *SessionStore) Revoked(ctx context.Context, token string) bool {
	return s.cache.Exists(ctx, cache.Keys.SessionRevoked(token))
}

// Revoke deletes the session and writes a tombstone that outlives the
// token itself, so a still-valid signature cannot resurrect it.
func (s *SessionStore) Revoke(ctx context.Context, token string, remaining time.Duration) {
	if err := s.cache.Delete(ctx, cache.Keys.Session(token)); err != nil {
		s.logger.WithError(err).Warn("Failed to delete session")
	}
	if remaining <= 0 {
		return
	}
	if err := s.cache.Set(ctx, cache.Keys.SessionRevoked(token), true, remaining); err != nil {
		s.logger.WithError(err).Warn("Failed to write revocation tombstone")
	}
}
