package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	calls atomic.Int32
	err   error
}

func (j *countingJob) Refresh(ctx context.Context) error {
	j.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("refresh context has no deadline")
	}
	return j.err
}

func TestScheduler_RunsImmediately(t *testing.T) {
	job := &countingJob{}
	s := New(job, time.Hour, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return job.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_FailedRunDoesNotStopScheduler(t *testing.T) {
	job := &countingJob{err: errors.New("upstream down")}
	s := New(job, time.Hour, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, s.Start())
	assert.Eventually(t, func() bool { return job.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	s.Stop()
}
