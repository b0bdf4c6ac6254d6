package redis

import (
	"context"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/taskdeck/backend/repository"
)

type claimStore struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewClaimStore creates a Redis-backed dispatch claim store. A claim is a
// SET NX key with a TTL, so a crashed worker's claim expires on its own.
func NewClaimStore(client *redislib.Client, ttl time.Duration) repository.ClaimStore {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &claimStore{
		client: client,
		prefix: "dispatch:claim:",
		ttl:    ttl,
	}
}

func (s *claimStore) Acquire(ctx context.Context, reminderID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	return s.client.SetNX(ctx, s.key(reminderID), time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

func (s *claimStore) Release(ctx context.Context, reminderID string) error {
	return s.client.Del(ctx, s.key(reminderID)).Err()
}

func (s *claimStore) key(reminderID string) string {
	return s.prefix + reminderID
}
