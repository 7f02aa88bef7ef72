package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"livepoll/internal/domain/user"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - session:{session_id} - 15m TTL, refresh on activity
// - session:user:{user_id} - set of the user's cached session IDs, so a
//   logout-all can drop every cached session at once

// CacheConfig contains configuration for caching
type CacheConfig struct {
	SessionTTL time.Duration // TTL for session cache (default 15m)
}

// DefaultCacheConfig returns sensible defaults
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		SessionTTL: 15 * time.Minute,
	}
}

// CacheStore handles caching in Redis
type CacheStore struct {
	client *goredis.Client
	config CacheConfig
}

// NewCacheStore creates a new cache store
func NewCacheStore(client *goredis.Client, config CacheConfig) *CacheStore {
	return &CacheStore{
		client: client,
		config: config,
	}
}

// SessionCache represents cached session data. Only non-revoked sessions are
// cached; revocation invalidates the entry.
type SessionCache struct {
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GetSession retrieves a session from cache. A nil result means cache miss.
func (c *CacheStore) GetSession(ctx context.Context, sessionID uuid.UUID) (*SessionCache, error) {
	data, err := c.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == goredis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var session SessionCache
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SetSessionFromEntity stores a session from the domain entity and records it
// in the user's session index.
func (c *CacheStore) SetSessionFromEntity(ctx context.Context, session user.UserSession) error {
	cached := SessionCache{
		SessionID: session.ID,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}

	indexKey := userSessionsKey(session.UserID)
	pipe := c.client.Pipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, c.config.SessionTTL)
	pipe.SAdd(ctx, indexKey, session.ID.String())
	pipe.Expire(ctx, indexKey, c.config.SessionTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateSession removes a session from cache
func (c *CacheStore) InvalidateSession(ctx context.Context, sessionID uuid.UUID) error {
	return c.client.Del(ctx, sessionKey(sessionID)).Err()
}

// InvalidateUserSessions removes every cached session of a user. Stale index
// members whose session entry already expired are harmless to delete again.
func (c *CacheStore) InvalidateUserSessions(ctx context.Context, userID uuid.UUID) error {
	indexKey := userSessionsKey(userID)
	members, err := c.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(members)+1)
	for _, member := range members {
		sessionID, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		keys = append(keys, sessionKey(sessionID))
	}
	keys = append(keys, indexKey)
	return c.client.Del(ctx, keys...).Err()
}

func sessionKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s", sessionID.String())
}

func userSessionsKey(userID uuid.UUID) string {
	return fmt.Sprintf("session:user:%s", userID.String())
}
