package leader

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultLeaderKey = "marketplace_leader"

const renewScript = `
    if redis.call("GET", KEYS[1]) == ARGV[1] then
        return redis.call("PEXPIRE", KEYS[1], ARGV[2])
    else
        return 0
    end
`

const releaseScript = `
    if redis.call("GET", KEYS[1]) == ARGV[1] then
        return redis.call("DEL", KEYS[1])
    else
        return 0
    end
`

type RedisLeaderElection struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisLeaderElection(client *redis.Client, ttl time.Duration) *RedisLeaderElection {
	return &RedisLeaderElection{
		client: client,
		key:    DefaultLeaderKey,
		ttl:    ttl,
	}
}

// BecomeLeader returns true when instanceID holds the lock after the call, either because it
// just acquired it or because it already held it. Holding the lock refreshes its TTL.
func (r *RedisLeaderElection) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	acquired, err := r.client.SetNX(ctx, r.key, instanceID, r.ttl).Result()
	if err != nil {
		return false, err
	}
	if acquired {
		return true, nil
	}

	return r.renew(ctx, instanceID)
}

func (r *RedisLeaderElection) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	currentLeader, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	return currentLeader == instanceID, nil
}

func (r *RedisLeaderElection) ReleaseLeadership(ctx context.Context, instanceID string) error {
	return r.client.Eval(ctx, releaseScript, []string{r.key}, instanceID).Err()
}

// MaintainLeadership renews the lock every ttl/3 until ctx is done or the lock is lost.
func (r *RedisLeaderElection) MaintainLeadership(ctx context.Context, instanceID string) {
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			renewCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			held, err := r.renew(renewCtx, instanceID)
			cancel()

			if err != nil || !held {
				return
			}
		}
	}
}

func (r *RedisLeaderElection) renew(ctx context.Context, instanceID string) (bool, error) {
	result, err := r.client.Eval(ctx, renewScript, []string{r.key},
		instanceID, r.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}
