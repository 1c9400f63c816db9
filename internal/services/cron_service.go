package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	// LoginAttemptCleanupSchedule runs at minute 15 of every hour
	LoginAttemptCleanupSchedule = "0 15 * * * *"
	// RefreshTokenCleanupSchedule runs at 3:00 AM every day
	RefreshTokenCleanupSchedule = "0 0 3 * * *"

	cronJobTimeout = 5 * time.Minute
)

// CleanupFunc deletes stale rows and reports how many were removed
type CleanupFunc func(ctx context.Context) (int64, error)

// CronService manages scheduled maintenance jobs
type CronService struct {
	cron   *cron.Cron
	logger *logrus.Logger

	mu   sync.Mutex
	jobs map[string]cron.EntryID
	runs map[string]func()
}

// NewCronService creates a new CronService
func NewCronService(logger *logrus.Logger) *CronService {
	return &CronService{
		// second minute hour day month weekday
		cron:   cron.New(cron.WithSeconds()),
		logger: logger,
		jobs:   make(map[string]cron.EntryID),
		runs:   make(map[string]func()),
	}
}

// AddCleanup schedules a cleanup job under a unique name
func (s *CronService) AddCleanup(name, schedule string, cleanup CleanupFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("cron job %q already scheduled", name)
	}

	run := func() { s.runCleanup(name, cleanup) }
	id, err := s.cron.AddFunc(schedule, run)
	if err != nil {
		return fmt.Errorf("failed to schedule %s job: %w", name, err)
	}

	s.jobs[name] = id
	s.runs[name] = run
	s.logger.WithFields(logrus.Fields{
		"job":      name,
		"schedule": schedule,
	}).Info("Scheduled maintenance job")

	return nil
}

// Start starts the scheduler
func (s *CronService) Start() {
	s.cron.Start()
	s.logger.WithField("job_count", len(s.cron.Entries())).Info("Cron service started")
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// RunNow runs a scheduled job immediately
func (s *CronService) RunNow(name string) error {
	s.mu.Lock()
	run, ok := s.runs[name]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("cron job %q not found", name)
	}
	run()
	return nil
}

// JobStatus returns the next and previous run of every job
func (s *CronService) JobStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]map[string]interface{}, 0, len(s.jobs))
	for name, id := range s.jobs {
		entry := s.cron.Entry(id)
		jobs = append(jobs, map[string]interface{}{
			"name":     name,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"job_count": len(jobs),
		"jobs":      jobs,
	}
}

func (s *CronService) runCleanup(name string, cleanup CleanupFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), cronJobTimeout)
	defer cancel()

	start := time.Now()
	deleted, err := cleanup(ctx)
	entry := s.logger.WithFields(logrus.Fields{
		"job":         name,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("Maintenance job failed")
		return
	}
	entry.WithField("deleted", deleted).Info("Maintenance job finished")
}
