package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the client backing the session store. Session lookups sit on the
// path of every gated request, so the operation timeout stays tight: a slow
// redis should fail the lookup, not stall the page.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis. opTimeout bounds reads and writes and comes
// from configuration; dialing gets twice that budget.
func NewRedis(addr string, opTimeout time.Duration) *Redis {
	if opTimeout <= 0 {
		opTimeout = time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * opTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}
