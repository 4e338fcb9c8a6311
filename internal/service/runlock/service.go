package runlock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultKey = "translation-sync:lock"

// Service guards against overlapping runs. Without a Redis client every Acquire
// succeeds.
type Service interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type service struct {
	redis *redis.Client
	key   string
	ttl   time.Duration
	token string
}

func NewService(redis *redis.Client, key string, ttl time.Duration) Service {
	return &service{
		redis: redis,
		key:   key,
		ttl:   ttl,
		token: uuid.New().String(),
	}
}

func (s *service) Acquire(ctx context.Context) (bool, error) {
	if s.redis == nil {
		return true, nil
	}
	return s.redis.SetNX(ctx, s.key, s.token, s.ttl).Result()
}

func (s *service) Release(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	return releaseScript.Run(ctx, s.redis, []string{s.key}, s.token).Err()
}
