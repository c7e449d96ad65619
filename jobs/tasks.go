package jobs

import (
	"encoding/json"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSnapshotWarmup reloads the snapshot from its source into the caches.
	TaskSnapshotWarmup = "snapshot:warmup"
)

// Warmup reasons recorded in task payloads and logs.
const (
	ReasonCron   = "cron"
	ReasonManual = "manual"
)

// SnapshotWarmupPayload describes why a warmup was requested.
type SnapshotWarmupPayload struct {
	Reason string `json:"reason"`
}

// NewSnapshotWarmupTask constructs an Asynq task.
func NewSnapshotWarmupTask(reason string) (*asynq.Task, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = ReasonManual
	}
	data, err := json.Marshal(SnapshotWarmupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSnapshotWarmup, data), nil
}
