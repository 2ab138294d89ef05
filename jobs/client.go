package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// Client submits tasks to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs a Client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// Enqueue submits task on the queue it was built for. A positive uniqueFor
// rejects identical tasks with asynq.ErrDuplicateTask for that window.
func (c *Client) Enqueue(ctx context.Context, task *asynq.Task, uniqueFor time.Duration) (*asynq.TaskInfo, error) {
	opts := []asynq.Option{asynq.MaxRetry(3)}
	if uniqueFor > 0 {
		opts = append(opts, asynq.Unique(uniqueFor))
	}
	return c.client.EnqueueContext(ctx, task, opts...)
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
