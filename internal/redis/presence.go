package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Watcher presence keys:
// - watchers:{poll_id} - set of client IDs currently subscribed to the poll,
//   expiry refreshed on every join so crashed instances age out.

const (
	watcherKeyPrefix = "watchers:"
)

// PresenceStore tracks how many live clients are watching each poll, across
// all server instances.
type PresenceStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewPresenceStore creates a new presence store
func NewPresenceStore(client *goredis.Client, ttl time.Duration) *PresenceStore {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &PresenceStore{client: client, ttl: ttl}
}

// AddWatcher records a client watching a poll
func (p *PresenceStore) AddWatcher(ctx context.Context, pollID, clientID string) error {
	key := watcherKeyPrefix + pollID
	pipe := p.client.Pipeline()
	pipe.SAdd(ctx, key, clientID)
	pipe.Expire(ctx, key, p.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// RemoveWatcher removes a client from a poll's watcher set
func (p *PresenceStore) RemoveWatcher(ctx context.Context, pollID, clientID string) error {
	key := watcherKeyPrefix + pollID
	return p.client.SRem(ctx, key, clientID).Err()
}

// WatcherCount returns the number of clients currently watching a poll
func (p *PresenceStore) WatcherCount(ctx context.Context, pollID string) (int64, error) {
	key := watcherKeyPrefix + pollID
	return p.client.SCard(ctx, key).Result()
}
