package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuboard/skuboard/jobs"
)

func TestTaskForWarmupAliases(t *testing.T) {
	for _, name := range []string{jobs.TaskSnapshotWarmup, "warmup"} {
		task, err := taskFor(name)
		require.NoError(t, err, name)
		assert.Equal(t, jobs.TaskSnapshotWarmup, task.Type())

		var payload jobs.SnapshotWarmupPayload
		require.NoError(t, json.Unmarshal(task.Payload(), &payload))
		assert.Equal(t, jobs.ReasonManual, payload.Reason)
	}
}

func TestTaskForUnknownJob(t *testing.T) {
	_, err := taskFor("insights:warmup")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported job")
}

func TestNilCLIReportsNotConfigured(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), jobs.TaskSnapshotWarmup)
	require.Error(t, err)
	_, err = c.InspectQueue(context.Background())
	require.Error(t, err)
	_, err = c.ListScheduled(context.Background(), 0)
	require.Error(t, err)
}

func TestNewJobsCLIRequiresAddress(t *testing.T) {
	_, err := NewJobsCLI("")
	require.Error(t, err)
}
