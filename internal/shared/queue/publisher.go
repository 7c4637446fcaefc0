package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dostavo/server/internal/shared/metrics"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher enqueues background tasks for the external worker pool.
// Fire-and-forget: the worker side is a separate system consuming the
// channel; delivery is at-most-once from this side.
type Publisher interface {
	Enqueue(ctx context.Context, taskName string, data map[string]any) error
}

// message is the wire format the worker side consumes.
type message struct {
	ID       string         `json:"id"`
	TaskName string         `json:"task_name"`
	Kwargs   map[string]any `json:"kwargs"`
}

// RedisPublisher publishes task messages on a Redis channel.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewRedisPublisher creates a Redis-backed task publisher.
func NewRedisPublisher(client redis.UniversalClient, channel string, m *metrics.Metrics, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		metrics: m,
		logger:  logger,
	}
}

// Enqueue publishes a task message.
func (p *RedisPublisher) Enqueue(ctx context.Context, taskName string, data map[string]any) error {
	msg := message{
		ID:       uuid.NewString(),
		TaskName: taskName,
		Kwargs:   data,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal task message: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		if p.metrics != nil {
			p.metrics.TasksPublishedTotal.WithLabelValues(taskName, "error").Inc()
		}
		return fmt.Errorf("publish task %s: %w", taskName, err)
	}

	if p.metrics != nil {
		p.metrics.TasksPublishedTotal.WithLabelValues(taskName, "ok").Inc()
	}
	p.logger.Debug("task published",
		zap.String("task_name", taskName),
		zap.String("task_id", msg.ID),
	)
	return nil
}
