package repair

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const pendingKey = "projects:repair:pending" // Set of user IDs whose metadata must be recomputed

// RedisQueue is a deduplicating queue of user IDs kept in a Redis set, so
// every API instance and the repair job share it.
type RedisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client, key: pendingKey}
}

// Enqueue marks the user for repair. Enqueuing twice is a no-op.
func (q *RedisQueue) Enqueue(ctx context.Context, userID string) error {
	if err := q.client.SAdd(ctx, q.key, userID).Err(); err != nil {
		return fmt.Errorf("failed to enqueue repair: %w", err)
	}
	return nil
}

// Drain removes and returns up to n pending user IDs.
func (q *RedisQueue) Drain(ctx context.Context, n int) ([]string, error) {
	ids, err := q.client.SPopN(ctx, q.key, int64(n)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to drain repair queue: %w", err)
	}
	return ids, nil
}

// Len returns the number of pending users.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.SCard(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count repair queue: %w", err)
	}
	return n, nil
}

// MemoryQueue is the single-process variant used with the memory store driver.
type MemoryQueue struct {
	mu      sync.Mutex
	pending map[string]struct{}
	order   []string
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{pending: make(map[string]struct{})}
}

func (q *MemoryQueue) Enqueue(_ context.Context, userID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.pending[userID]; ok {
		return nil
	}
	q.pending[userID] = struct{}{}
	q.order = append(q.order, userID)
	return nil
}

func (q *MemoryQueue) Drain(_ context.Context, n int) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n > len(q.order) {
		n = len(q.order)
	}
	ids := append([]string(nil), q.order[:n]...)
	q.order = q.order[n:]
	for _, id := range ids {
		delete(q.pending, id)
	}
	return ids, nil
}

func (q *MemoryQueue) Len(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.order)), nil
}
