// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/habermas/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list holding journaled lobby actions.
const DefaultQueueName = "habermas_actions"

// RedisJournal pushes lobby action records onto a Redis list for the historian
// and pops them back off on the historian side.
type RedisJournal struct {
	client *redis.Client
	queue  string
}

// NewRedisJournal connects to addr and checks the connection with a ping.
func NewRedisJournal(addr string, db int, queue string) (*RedisJournal, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &RedisJournal{client: client, queue: queue}, nil
}

// Queue is the name of the list records are pushed to.
func (j *RedisJournal) Queue() string { return j.queue }

// Record serializes rec and appends it to the queue.
func (j *RedisJournal) Record(ctx context.Context, rec models.ActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := j.client.RPush(ctx, j.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", j.queue, err)
	}
	return nil
}

// Pop blocks up to timeout for the next record. It returns ok=false on timeout.
func (j *RedisJournal) Pop(ctx context.Context, timeout time.Duration) (rec models.ActionRecord, ok bool, err error) {
	res, err := j.client.BLPop(ctx, timeout, j.queue).Result()
	if errors.Is(err, redis.Nil) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("BLPop on '%s': %w", j.queue, err)
	}
	// res[0] is the list name, res[1] the payload
	if len(res) < 2 {
		return rec, false, nil
	}
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		return rec, false, fmt.Errorf("failed to unmarshal ActionRecord: %w", err)
	}
	return rec, true, nil
}

// Close releases the Redis client.
func (j *RedisJournal) Close() error {
	return j.client.Close()
}
