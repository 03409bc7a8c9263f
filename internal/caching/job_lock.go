package caching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another process holds the job lock.
var ErrLockHeld = errors.New("job lock held by another process")

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// JobLocker is a gocron.Locker that lets one process per deployment run a scheduled job.
type JobLocker struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ gocron.Locker = (*JobLocker)(nil)

func NewJobLocker(client redis.Cmdable, ttl time.Duration) *JobLocker {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JobLocker{client: client, ttl: ttl}
}

func (l *JobLocker) Lock(ctx context.Context, key string) (gocron.Lock, error) {
	lockKey := fmt.Sprintf("%s:job_lock:%s", keyPrefix, key)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", lockKey, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return &jobLock{client: l.client, key: lockKey, token: token}, nil
}

type jobLock struct {
	client redis.Cmdable
	key    string
	token  string
}

func (l *jobLock) Unlock(ctx context.Context) error {
	return unlockScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}
