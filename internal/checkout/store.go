package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"travelenda/internal/shared/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store persists checkout sessions and guards payment submission.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error

	// Lock takes the per-session submission lock. It fails with ErrSubmissionInProgress
	// when another submission holds it.
	Lock(ctx context.Context, id string) (release func(), err error)
}

// Only the holder's token may release the lock; an expired lock may belong to someone else.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisStore struct {
	redis   *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewRedisStore creates a Redis-backed store. Sessions expire ttl after their last save.
func NewRedisStore(client *redis.Client, ttl, lockTTL time.Duration) Store {
	return &redisStore{redis: client, ttl: ttl, lockTTL: lockTTL}
}

func (s *redisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.redis.Get(ctx, constants.BuildCheckoutSessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load checkout session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	return &session, nil
}

func (s *redisStore) Save(ctx context.Context, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode checkout session: %w", err)
	}
	if err := s.redis.Set(ctx, constants.BuildCheckoutSessionKey(session.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save checkout session: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	return s.redis.Del(ctx, constants.BuildCheckoutSessionKey(id)).Err()
}

func (s *redisStore) Lock(ctx context.Context, id string) (func(), error) {
	key := constants.BuildCheckoutLockKey(id)
	token := uuid.NewString()

	ok, err := s.redis.SetNX(ctx, key, token, s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire checkout lock: %w", err)
	}
	if !ok {
		return nil, ErrSubmissionInProgress
	}

	release := func() {
		// The request context may already be done when the submission timed out.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = releaseLockScript.Run(releaseCtx, s.redis, []string{key}, token).Err()
	}
	return release, nil
}

// PreloadScripts loads the lock script so the first release does not pay for EVAL
func PreloadScripts(ctx context.Context, client *redis.Client) error {
	if err := releaseLockScript.Load(ctx, client).Err(); err != nil {
		return fmt.Errorf("failed to load checkout lock script: %w", err)
	}
	return nil
}
