package counter

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	eventsReceivedKey  = "webhook:counters:received"
	eventsCompletedKey = "webhook:counters:completed"
	eventsFailedKey    = "webhook:counters:failed"
)

// Counter accumulates per-event-type webhook counters in Redis hashes. The
// counters are best-effort operational telemetry; increments never fail the
// pipeline.
type Counter struct {
	client *redis.Client
}

func New(client *redis.Client) *Counter {
	return &Counter{client: client}
}

// AddReceived increments the received counter for an event type.
func (c *Counter) AddReceived(ctx context.Context, eventType string) error {
	return c.client.HIncrBy(ctx, eventsReceivedKey, eventType, 1).Err()
}

// AddCompleted increments the completed counter for an event type.
func (c *Counter) AddCompleted(ctx context.Context, eventType string) error {
	return c.client.HIncrBy(ctx, eventsCompletedKey, eventType, 1).Err()
}

// AddFailed increments the failed-attempt counter for an event type.
func (c *Counter) AddFailed(ctx context.Context, eventType string) error {
	return c.client.HIncrBy(ctx, eventsFailedKey, eventType, 1).Err()
}

// Snapshot reads all counters grouped by outcome.
func (c *Counter) Snapshot(ctx context.Context) (map[string]map[string]int64, error) {
	out := make(map[string]map[string]int64, 3)
	for name, key := range map[string]string{
		"received":  eventsReceivedKey,
		"completed": eventsCompletedKey,
		"failed":    eventsFailedKey,
	} {
		raw, err := c.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		counts := make(map[string]int64, len(raw))
		for eventType, v := range raw {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				counts[eventType] = n
			}
		}
		out[name] = counts
	}
	return out, nil
}
