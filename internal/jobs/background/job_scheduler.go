package background

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"barangayhealth/internal/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// StockSweepJob is the registered name of the daily inventory sweep.
const StockSweepJob = "inventory-stock-sweep"

// DefaultSchedule runs the sweep at 06:00 every day.
const DefaultSchedule = "0 6 * * *"

var ErrJobNotFound = errors.New("job not found")

// SweepRunner is the task body behind the stock sweep job.
type SweepRunner interface {
	Run(ctx context.Context) error
	LastSummary() *models.SweepSummary
}

type SchedulerOptions struct {
	Schedule string
	Location *time.Location
	// Locker keeps a job to one process across replicas. Nil runs without a lock.
	Locker gocron.Locker
	Clock  clockwork.Clock
	Logger *zap.Logger
}

// JobStatus is a point-in-time view of one scheduled job.
type JobStatus struct {
	Name        string               `json:"name"`
	Schedule    string               `json:"schedule"`
	NextRun     *time.Time           `json:"next_run,omitempty"`
	LastRun     *time.Time           `json:"last_run,omitempty"`
	LastSummary *models.SweepSummary `json:"last_summary,omitempty"`
}

// JobScheduler manages the background jobs of this process
type JobScheduler struct {
	scheduler gocron.Scheduler
	runner    SweepRunner
	schedule  string
	jobs      map[string]gocron.Job
	logger    *zap.Logger
	mu        sync.RWMutex
}

// NewJobScheduler creates the scheduler and registers the stock sweep. It does not start it.
func NewJobScheduler(runner SweepRunner, opts SchedulerOptions) (*JobScheduler, error) {
	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	schedulerOpts := []gocron.SchedulerOption{
		gocron.WithLocation(opts.Location),
		gocron.WithLogger(zapLogger{opts.Logger.Sugar()}),
	}
	if opts.Locker != nil {
		schedulerOpts = append(schedulerOpts, gocron.WithDistributedLocker(opts.Locker))
	}
	if opts.Clock != nil {
		schedulerOpts = append(schedulerOpts, gocron.WithClock(opts.Clock))
	}

	scheduler, err := gocron.NewScheduler(schedulerOpts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		runner:    runner,
		schedule:  opts.Schedule,
		jobs:      make(map[string]gocron.Job),
		logger:    opts.Logger,
	}

	if err := js.registerJobs(); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler", zap.String("schedule", js.schedule))
	js.scheduler.Start()
}

// Stop waits for running jobs to finish and stops the scheduler
func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	job, err := js.scheduler.NewJob(
		gocron.CronJob(js.schedule, false),
		gocron.NewTask(js.runStockSweep),
		gocron.WithName(StockSweepJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithEventListeners(
			gocron.AfterJobRunsWithError(func(_ uuid.UUID, name string, err error) {
				js.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			}),
			gocron.AfterLockError(func(_ uuid.UUID, name string, err error) {
				js.logger.Info("job skipped, lock held elsewhere", zap.String("job", name), zap.Error(err))
			}),
		),
	)
	if err != nil {
		return fmt.Errorf("register %s job: %w", StockSweepJob, err)
	}

	js.jobs[StockSweepJob] = job
	js.logger.Info("registered background jobs", zap.Int("count", len(js.jobs)))
	return nil
}

func (js *JobScheduler) runStockSweep(ctx context.Context) error {
	return js.runner.Run(ctx)
}

// RunNow triggers a registered job outside its schedule. It still honours the
// singleton mode and the distributed lock.
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	job, ok := js.jobs[name]
	js.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrJobNotFound)
	}

	js.logger.Info("job triggered manually", zap.String("job", name))
	return job.RunNow()
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() []JobStatus {
	js.mu.RLock()
	defer js.mu.RUnlock()

	statuses := make([]JobStatus, 0, len(js.jobs))
	for name, job := range js.jobs {
		status := JobStatus{Name: name, Schedule: js.schedule}
		if next, err := job.NextRun(); err == nil && !next.IsZero() {
			status.NextRun = &next
		}
		if last, err := job.LastRun(); err == nil && !last.IsZero() {
			status.LastRun = &last
		}
		if name == StockSweepJob {
			status.LastSummary = js.runner.LastSummary()
		}
		statuses = append(statuses, status)
	}

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

// zapLogger adapts zap to gocron's key/value logger.
type zapLogger struct {
	l *zap.SugaredLogger
}

func (z zapLogger) Debug(msg string, args ...any) { z.l.Debugw(msg, args...) }
func (z zapLogger) Info(msg string, args ...any)  { z.l.Infow(msg, args...) }
func (z zapLogger) Warn(msg string, args ...any)  { z.l.Warnw(msg, args...) }
func (z zapLogger) Error(msg string, args ...any) { z.l.Errorw(msg, args...) }
