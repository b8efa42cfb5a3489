// internal/reconcile/gate.go
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "offer-ledger/internal/common/errors"

	"github.com/redis/go-redis/v9"
)

// Gate is the advisory pause signal checked by the loop before each cycle.
// Suspensions are counted, so overlapping holders cannot resume the loop early.
type Gate interface {
	Suspend(ctx context.Context) error
	Resume(ctx context.Context) error
	Suspended(ctx context.Context) (bool, error)
}

// LocalGate is an in-process Gate.
type LocalGate struct {
	mu    sync.Mutex
	holds int
}

func NewLocalGate() *LocalGate {
	return &LocalGate{}
}

func (g *LocalGate) Suspend(context.Context) error {
	g.mu.Lock()
	g.holds++
	g.mu.Unlock()
	return nil
}

func (g *LocalGate) Resume(context.Context) error {
	g.mu.Lock()
	if g.holds > 0 {
		g.holds--
	}
	g.mu.Unlock()
	return nil
}

func (g *LocalGate) Suspended(context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holds > 0, nil
}

// Holds returns the number of outstanding suspensions.
func (g *LocalGate) Holds() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holds
}

var resumeScript = redis.NewScript(`
local n = redis.call('DECR', KEYS[1])
if n <= 0 then
  redis.call('DEL', KEYS[1])
  return 0
end
return n
`)

// RedisGate shares the pause signal between processes, e.g. offerctl purge
// and the running daemon. The counter expires after ttl so a crashed holder
// cannot leave the loop suspended forever.
type RedisGate struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

func NewRedisGate(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisGate {
	return &RedisGate{client: client, key: prefix + ":reconcile:pause", ttl: ttl}
}

func (g *RedisGate) Suspend(ctx context.Context) error {
	_, err := g.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, g.key)
		if g.ttl > 0 {
			p.PExpire(ctx, g.key, g.ttl)
		}
		return nil
	})
	if err != nil {
		return apperrors.NewStoreUnavailableError("suspend reconciliation", err)
	}
	return nil
}

func (g *RedisGate) Resume(ctx context.Context) error {
	if err := resumeScript.Run(ctx, g.client, []string{g.key}).Err(); err != nil {
		return apperrors.NewStoreUnavailableError("resume reconciliation", err)
	}
	return nil
}

func (g *RedisGate) Suspended(ctx context.Context) (bool, error) {
	n, err := g.client.Get(ctx, g.key).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewStoreUnavailableError("read pause signal", fmt.Errorf("get %s: %w", g.key, err))
	}
	return n > 0, nil
}
