package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Queue names, serviced by weighted priority.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// QueueWeights is passed to the asynq server; higher weights are polled more often.
var QueueWeights = map[string]int{QueueCritical: 6, QueueDefault: 3, QueueLow: 1}

// Queues lists queue names from highest to lowest priority.
func Queues() []string {
	return []string{QueueCritical, QueueDefault, QueueLow}
}

const (
	// TaskInventoryLowStockScan reports catalog items at or below the low-stock threshold.
	TaskInventoryLowStockScan = "inventory:low_stock_scan"
	// TaskAnalyticsDashboardWarmup pre-fills the cached analytics dashboard.
	TaskAnalyticsDashboardWarmup = "analytics:dashboard_warmup"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// DashboardWarmupPayload selects the dashboard year. Zero means the current year.
type DashboardWarmupPayload struct {
	Year int `json:"year,omitempty"`
}

// NewLowStockScanTask constructs the low-stock scan task.
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TaskInventoryLowStockScan, nil, asynq.Queue(QueueCritical), asynq.Timeout(time.Minute))
}

// NewDashboardWarmupTask constructs the dashboard warmup task.
func NewDashboardWarmupTask(year int) (*asynq.Task, error) {
	data, err := json.Marshal(DashboardWarmupPayload{Year: year})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsDashboardWarmup, data, asynq.Queue(QueueDefault), asynq.Timeout(2*time.Minute)), nil
}

// NewIdempotencyCleanupTask constructs the idempotency key purge task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil, asynq.Queue(QueueLow), asynq.Timeout(time.Minute))
}

// NewTask builds a task by type name with default payload.
func NewTask(taskType string) (*asynq.Task, error) {
	switch taskType {
	case TaskInventoryLowStockScan:
		return NewLowStockScanTask(), nil
	case TaskAnalyticsDashboardWarmup:
		return NewDashboardWarmupTask(0)
	case TaskIdempotencyCleanup:
		return NewIdempotencyCleanupTask(), nil
	default:
		return nil, fmt.Errorf("jobs: unknown task type %q", taskType)
	}
}
