// Package scheduler runs the daily sync and report jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/aurum/internal/logger"
	"github.com/yourusername/aurum/internal/service"
)

// Job names as reported in logs
const (
	JobDailySync   = "daily_sync"
	JobDailyReport = "daily_report"
)

// Syncer fetches and stores the latest bars
type Syncer interface {
	Sync(ctx context.Context) (*service.IngestionMetrics, error)
}

// Reporter runs the backtest pipeline over stored bars
type Reporter interface {
	Run(ctx context.Context, opts service.BacktestOptions) (*service.BacktestReport, error)
}

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron            *cron.Cron
	logger          *logrus.Logger
	audit           *logger.AuditLogger
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          map[string]cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler. Expressions take a leading seconds field.
func NewScheduler(log *logrus.Logger) *Scheduler {
	if log == nil {
		log = logrus.New()
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))),
		),
		logger:          log,
		audit:           logger.NewAuditLogger(log),
		jobIDs:          make(map[string]cron.EntryID),
		jobTimeout:      30 * time.Minute,
		gracefulTimeout: 30 * time.Second,
	}
}

// ScheduleDailySync schedules the provider sync
func (s *Scheduler) ScheduleDailySync(cronExpression string, syncer Syncer) error {
	if syncer == nil {
		return fmt.Errorf("syncer is required")
	}
	return s.schedule(JobDailySync, cronExpression, func(ctx context.Context) error {
		stats, err := syncer.Sync(ctx)
		if err != nil {
			return err
		}
		s.logger.WithField("job", JobDailySync).Info(stats.String())
		return nil
	})
}

// ScheduleDailyReport schedules a backtest run over the stored series
func (s *Scheduler) ScheduleDailyReport(cronExpression string, reporter Reporter, opts service.BacktestOptions) error {
	if reporter == nil {
		return fmt.Errorf("reporter is required")
	}
	return s.schedule(JobDailyReport, cronExpression, func(ctx context.Context) error {
		report, err := reporter.Run(ctx, opts)
		if err != nil {
			return err
		}
		if len(report.Ranked) > 0 {
			best := report.Ranked[0]
			s.logger.WithFields(logrus.Fields{
				"job":             JobDailyReport,
				"best_strategy":   best.Strategy,
				"composite_score": best.CompositeScore,
				"recommendation":  best.Recommendation,
			}).Info("Daily report completed")
		}
		return nil
	})
}

func (s *Scheduler) schedule(name, cronExpression string, run func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if _, exists := s.jobIDs[name]; exists {
		return fmt.Errorf("job %s is already scheduled", name)
	}

	entryID, err := s.cron.AddFunc(cronExpression, s.wrap(name, run))
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}

	s.jobIDs[name] = entryID
	s.logger.WithFields(logrus.Fields{
		"job":      name,
		"schedule": cronExpression,
	}).Info("Scheduled job")

	return nil
}

func (s *Scheduler) wrap(name string, run func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		s.audit.LogScheduledJob(name, "started", nil)
		if err := run(ctx); err != nil {
			s.audit.LogScheduledJob(name, "failed", err)
			return
		}
		s.audit.LogScheduledJob(name, "completed", nil)
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop waits for running jobs up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}
	s.isRunning = false

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %v", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the next run time of a job, zero when unknown
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.jobIDs[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Jobs returns the names of scheduled jobs
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobIDs))
	for name := range s.jobIDs {
		names = append(names, name)
	}
	return names
}
