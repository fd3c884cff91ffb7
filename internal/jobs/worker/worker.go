package worker

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	"github.com/yungbote/foodgram-backend/internal/jobs/runtime"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/pkg/httpx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/services"
)

type Config struct {
	Workers      int
	PollInterval time.Duration
	MaxAttempts  int
	RetryDelay   time.Duration
	StaleRunning time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 4
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	if c.StaleRunning <= 0 {
		c.StaleRunning = 2 * time.Minute
	}
	return c
}

// Worker polls job_run for runnable rows. Several processes may run workers
// against the same table; claims use SKIP LOCKED.
type Worker struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.JobRunRepo
	registry *runtime.Registry
	notify   services.JobNotifier
	cfg      Config
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, registry *runtime.Registry, notify services.JobNotifier, cfg Config) *Worker {
	return &Worker{
		db:       db,
		log:      baseLog.With("component", "JobWorker"),
		repo:     repo,
		registry: registry,
		notify:   notify,
		cfg:      cfg.withDefaults(),
	}
}

// Run blocks until ctx is done and every loop has returned.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("Starting job worker pool",
		"concurrency", w.cfg.Workers,
		"poll_interval", w.cfg.PollInterval,
		"max_attempts", w.cfg.MaxAttempts,
		"job_types", w.registry.Types(),
	)
	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.runLoop(ctx, workerID)
		}(i + 1)
	}
	wg.Wait()
	return nil
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case <-time.After(httpx.JitterSleep(w.cfg.PollInterval)):
		}
		// Drain before sleeping again.
		for ctx.Err() == nil {
			ran, err := w.RunOnce(ctx)
			if err != nil {
				w.log.Warn("ClaimNextRunnable failed", "worker_id", workerID, "error", err)
				break
			}
			if !ran {
				break
			}
		}
	}
}

// RunOnce claims and executes at most one job. It reports whether a job was
// claimed.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.repo.ClaimNextRunnable(dbctx.Context{Ctx: ctx}, w.cfg.MaxAttempts, w.cfg.RetryDelay, w.cfg.StaleRunning)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go w.heartbeat(hbCtx, job.ID.String(), func() error {
		return w.repo.Heartbeat(dbctx.Context{Ctx: hbCtx}, job.ID)
	})

	jc := runtime.NewContext(ctx, w.db, job, w.repo, w.notify, w.log)
	if err := runtime.Execute(w.registry, jc); err != nil {
		w.log.Warn("Job attempt failed",
			"job_id", job.ID,
			"job_type", job.JobType,
			"attempt", job.Attempts,
			"max_attempts", w.cfg.MaxAttempts,
			"error", err,
		)
	}
	return true, nil
}

func (w *Worker) heartbeat(ctx context.Context, jobID string, beat func() error) {
	interval := w.cfg.StaleRunning / 3
	if interval <= 0 {
		interval = 10 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := beat(); err != nil && ctx.Err() == nil {
				w.log.Warn("job heartbeat failed", "job_id", jobID, "error", err)
			}
		}
	}
}
