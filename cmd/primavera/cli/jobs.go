// Package cli holds operator commands that run outside the HTTP server.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hibiken/asynq"

	"github.com/primavera-events/primavera/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(opts asynq.RedisClientOpt) *JobsCLI {
	return &JobsCLI{client: jobs.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a supported job by task type with its default payload.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	task, err := jobs.NewTask(name)
	if err != nil {
		return nil, err
	}
	return c.client.Enqueue(ctx, task, 0)
}

// QueueStats is the depth of every job queue.
type QueueStats []jobs.QueueDepth

// InspectQueues reports the depth of each queue in priority order.
func (c *JobsCLI) InspectQueues() (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	return jobs.Depths(c.inspector)
}

// Print writes one line per queue.
func (s QueueStats) Print(w io.Writer) {
	for _, d := range s {
		_, _ = fmt.Fprintf(w, "queue=%s pending=%d active=%d scheduled=%d retry=%d failed=%d\n",
			d.Queue, d.Pending, d.Active, d.Scheduled, d.Retry, d.Failed)
	}
}
