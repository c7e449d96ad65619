package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/skuboard/skuboard/internal/jobs"
	"github.com/skuboard/skuboard/internal/snapshot"
)

type stubRefresher struct {
	snap  *snapshot.Snapshot
	err   error
	calls int
}

func (s *stubRefresher) Refresh(ctx context.Context) (*snapshot.Snapshot, error) {
	s.calls++
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("refresh called without deadline")
	}
	return s.snap, s.err
}

func newWarmupTask(t *testing.T, reason string) *asynq.Task {
	t.Helper()
	task, err := NewSnapshotWarmupTask(reason)
	require.NoError(t, err)
	return task
}

func TestSnapshotWarmupRecordsRows(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	refresher := &stubRefresher{snap: &snapshot.Snapshot{
		GeneratedAt: "2025-06-01T00:00:00Z",
		Products:    []snapshot.Row{{"product_code": "P-1"}, {"product_code": "P-2"}},
		SKUs:        []snapshot.Row{{"sku_code": "S-1"}},
	}}
	job := NewSnapshotWarmupJob(refresher, nil, metrics)

	require.NoError(t, job.Handle(context.Background(), newWarmupTask(t, ReasonCron)))
	assert.Equal(t, 1, refresher.calls)

	count, err := testutil.GatherAndCount(reg, "skuboard_snapshot_rows")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	count, err = testutil.GatherAndCount(reg, "skuboard_job_last_success_timestamp_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSnapshotWarmupPropagatesFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	boom := errors.New("upstream down")
	job := NewSnapshotWarmupJob(&stubRefresher{err: boom}, nil, metrics)

	err := job.Handle(context.Background(), newWarmupTask(t, ReasonManual))
	require.ErrorIs(t, err, boom)

	count, err := testutil.GatherAndCount(reg, "skuboard_jobs_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = testutil.GatherAndCount(reg, "skuboard_job_last_success_timestamp_seconds")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSnapshotWarmupSkipsRetryOnBadPayload(t *testing.T) {
	job := NewSnapshotWarmupJob(&stubRefresher{}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), asynq.NewTask(TaskSnapshotWarmup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSnapshotWarmupRequiresRefresher(t *testing.T) {
	var job *SnapshotWarmupJob
	require.Error(t, job.Handle(context.Background(), newWarmupTask(t, ReasonCron)))
}

func TestNewSnapshotWarmupTaskDefaultsReason(t *testing.T) {
	task := newWarmupTask(t, "  ")
	assert.Equal(t, TaskSnapshotWarmup, task.Type())
	assert.JSONEq(t, `{"reason":"manual"}`, string(task.Payload()))
}
