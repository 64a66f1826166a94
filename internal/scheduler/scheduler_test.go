package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJobRunsOnSchedule(t *testing.T) {
	s := New(zap.NewNop())
	var runs atomic.Int32
	require.NoError(t, s.Add(Job{
		Name: "tick",
		Spec: "* * * * * *",
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	}))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestEmptySpecDisablesJob(t *testing.T) {
	s := New(zap.NewNop())
	require.NoError(t, s.Add(Job{Name: "off", Run: func(context.Context) error { return nil }}))
	_, ok := s.Next("off")
	assert.False(t, ok)
}

func TestInvalidSpec(t *testing.T) {
	s := New(zap.NewNop())
	err := s.Add(Job{Name: "bad", Spec: "every tuesday", Run: func(context.Context) error { return nil }})
	assert.ErrorContains(t, err, "bad")
}

func TestNextReportsScheduledTime(t *testing.T) {
	s := New(zap.NewNop())
	require.NoError(t, s.Add(Job{Name: "hourly", Spec: "0 0 * * * *", Run: func(context.Context) error { return nil }}))
	s.Start()
	defer s.Stop()

	next, ok := s.Next("hourly")
	require.True(t, ok)
	assert.Zero(t, next.Minute())
	assert.True(t, next.After(time.Now()))
}

type stubBackfiller struct {
	limit int
}

func (s *stubBackfiller) Backfill(_ context.Context, limit int) (int, error) {
	s.limit = limit
	return 2, errors.New("one failed")
}

func TestCertificateBackfillJob(t *testing.T) {
	b := &stubBackfiller{}
	job := CertificateBackfillJob("@every 1m", b, zap.NewNop())

	err := job.Run(context.Background())
	assert.EqualError(t, err, "one failed")
	assert.Equal(t, backfillBatch, b.limit)
}
