package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named background task run on a cron schedule
type Job struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs maintenance jobs. Specs use the six-field (seconds) cron format.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	mu      sync.Mutex
	running bool
	entries map[string]cron.EntryID
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DiscardLogger))),
		logger:  logger,
		entries: make(map[string]cron.EntryID),
	}
}

// Add registers job. An empty spec leaves the job disabled.
func (s *Scheduler) Add(job Job) error {
	if job.Spec == "" {
		s.logger.Info("Job disabled", zap.String("job", job.Name))
		return nil
	}
	if job.Timeout <= 0 {
		job.Timeout = 5 * time.Minute
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// SkipIfStillRunning keeps a slow run from overlapping the next tick
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		s.runJob(job)
	}))
	id, err := s.cron.AddJob(job.Spec, wrapped)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
	}
	s.entries[job.Name] = id

	s.logger.Info("Job scheduled", zap.String("job", job.Name), zap.String("cron", job.Spec))
	return nil
}

func (s *Scheduler) runJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), job.Timeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("Job failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	s.logger.Debug("Job finished", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
}

// Next reports when the named job runs next
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.logger.Info("Starting scheduler", zap.Int("jobs", len(s.entries)))
	s.cron.Start()
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.running = false
}
