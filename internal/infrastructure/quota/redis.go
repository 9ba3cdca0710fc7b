package quota

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/shortly/shortly/config"
)

// RedisGuard enforces a fixed-window creation quota per caller: one counter
// per caller per window, expired by redis itself. Usage events land in plain
// per-caller counters.
type RedisGuard struct {
	cfg    config.Quota
	client *redis.Client
}

func NewRedisGuard(ctx context.Context, cfg config.Quota) (*RedisGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	g := &RedisGuard{
		cfg:    cfg,
		client: client,
	}

	cancelCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if err := client.Ping(cancelCtx).Err(); err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "[redis] ping: %s", err)
	}
	return g, nil
}

func (g *RedisGuard) Check(ctx context.Context, callerID string) (Verdict, error) {
	cancelCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	key := "quota:create:" + callerID

	count, err := g.client.Incr(cancelCtx, key).Result()
	if err != nil {
		return Verdict{}, errors.Wrapf(ErrUnavailable, "[redis] incr %q: %s", key, err)
	}
	if count == 1 {
		if err := g.client.PExpire(cancelCtx, key, g.cfg.Window).Err(); err != nil {
			return Verdict{}, errors.Wrapf(ErrUnavailable, "[redis] expire %q: %s", key, err)
		}
	}

	if count > int64(g.cfg.CreateLimit) {
		retryAfter, err := g.client.PTTL(cancelCtx, key).Result()
		if err != nil {
			retryAfter = g.cfg.Window
		}
		return Verdict{
			Allowed:    false,
			Reason:     "creation quota exceeded",
			RetryAfter: retryAfter,
		}, nil
	}

	return Verdict{Allowed: true}, nil
}

func (g *RedisGuard) Record(ctx context.Context, callerID, event string) error {
	cancelCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	key := "usage:" + event + ":" + callerID
	if err := g.client.Incr(cancelCtx, key).Err(); err != nil {
		return errors.Wrapf(ErrUnavailable, "[redis] incr %q: %s", key, err)
	}
	return nil
}

func (g *RedisGuard) Close(ctx context.Context) error {
	return g.client.Close()
}
