// Package coordination lets the two replicas share a best-effort view
// of processor health across process restarts.
//
// This is purely an optimization on top of the Health Monitor, never a
// replacement for it: a freshly started replica seeds its local
// ProcessorState from the peer's last published probe instead of
// assuming healthy for a full 5s cycle, but the Monitor's own next
// probe always overwrites it.
package coordination

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const ttl = 30 * time.Second

// Coordinator is nil-safe: every method is a no-op when no Redis URL
// was configured, so the gateway runs correctly without Redis at all.
type Coordinator struct {
	client *redis.Client
}

// New connects to Redis, or returns a nil *Coordinator (not an error)
// when redisURL is empty — Redis is an optional coordination channel,
// not a dependency of correctness.
func New(redisURL string) (*Coordinator, error) {
	if redisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Coordinator{client: client}, nil
}

func (c *Coordinator) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Publish records this replica's latest probe for name ("default" or
// "fallback") so a peer can seed from it.
func (c *Coordinator) Publish(ctx context.Context, name string, healthy bool, minLatencyMs int) {
	if c == nil {
		return
	}
	key := "rinha:health:" + name
	value := fmt.Sprintf("%t:%d", healthy, minLatencyMs)
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("COORDINATION_PUBLISH_FAILED processor=%s err=%v", name, err)
	}
}

// Seed returns the peer's last published probe for name, if any and
// still fresh (Redis TTL already enforces freshness; a miss just
// means "no recent peer observation", not an error).
func (c *Coordinator) Seed(ctx context.Context, name string) (healthy bool, minLatencyMs int, ok bool) {
	if c == nil {
		return false, 0, false
	}
	key := "rinha:health:" + name
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return false, 0, false
	}

	var healthyStr string
	var latencyStr string
	for i, ch := range val {
		if ch == ':' {
			healthyStr = val[:i]
			latencyStr = val[i+1:]
			break
		}
	}
	if healthyStr == "" {
		return false, 0, false
	}
	healthy = healthyStr == "true"
	minLatencyMs, err = strconv.Atoi(latencyStr)
	if err != nil {
		return false, 0, false
	}
	return healthy, minLatencyMs, true
}
