package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_Worker_TransitionsStatus(t *testing.T) {
	q := NewQueue(1, nil)
	q.Start(func(_ context.Context, _ *TranslationJob) error { return nil })
	defer q.Stop()

	job, _ := q.Enqueue(EnqueueRequest{
		Source:    "manual",
		DedupeKey: "k1",
	})

	require.Eventually(t, func() bool {
		got, ok := q.Get(job.ID)
		if !ok || got == nil {
			return false
		}
		return got.Status == StatusSuccess
	}, time.Second, 10*time.Millisecond)
}

func TestQueue_Worker_RecordsSkippedJobs(t *testing.T) {
	q := NewQueue(1, nil)
	q.Start(func(_ context.Context, job *TranslationJob) error {
		return fmt.Errorf("output %s already exists: %w", job.Payload.OutputPath, ErrSkip)
	})
	defer q.Stop()

	job, _ := q.Enqueue(EnqueueRequest{
		Source:    "cron",
		DedupeKey: "k-skip",
		Payload: JobPayload{
			SubtitlePath: "/library/ep1.en.srt",
			OutputPath:   "/library/ep1.zh.srt",
		},
	})

	require.Eventually(t, func() bool {
		got, ok := q.Get(job.ID)
		return ok && got != nil && got.Status == StatusSkipped
	}, time.Second, 10*time.Millisecond)

	got, ok := q.Get(job.ID)
	require.True(t, ok)
	assert.Empty(t, got.Error)
}

func TestQueue_Stop_ReturnsInterruptedJobToPending(t *testing.T) {
	q := NewQueue(1, newMemoryStore())

	running := make(chan struct{})
	q.Start(func(ctx context.Context, _ *TranslationJob) error {
		close(running)
		<-ctx.Done()
		return ctx.Err()
	})

	job, created := q.Enqueue(EnqueueRequest{
		Source:    "manual",
		DedupeKey: "stop-key",
		Payload:   JobPayload{SubtitlePath: "/library/ep1.en.srt"},
	})
	require.True(t, created)

	select {
	case <-running:
	case <-time.After(time.Second):
		t.Fatal("job never started")
	}

	q.Stop()

	got, ok := q.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusPending, got.Status)
}
