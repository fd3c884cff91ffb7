package jobrun

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	jobrt "github.com/yungbote/foodgram-backend/internal/jobs/runtime"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
	"github.com/yungbote/foodgram-backend/internal/services"
)

type Activities struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Jobs     repos.JobRunRepo
	Registry *jobrt.Registry
	Notify   services.JobNotifier
}

// Run executes one attempt. A returned error makes Temporal retry per
// RetryPolicy; jobs that are already terminal are not run again.
func (a *Activities) Run(ctx context.Context, jobID string) error {
	if a == nil || a.DB == nil || a.Jobs == nil || a.Registry == nil {
		return temporal.NewNonRetryableApplicationError("jobrun: activity not configured", "config", nil)
	}
	id, err := uuid.Parse(strings.TrimSpace(jobID))
	if err != nil || id == uuid.Nil {
		return temporal.NewNonRetryableApplicationError("jobrun: invalid job_id", "invalid_job_id", err)
	}

	dbc := dbctx.Context{Ctx: ctx}
	job, err := a.Jobs.GetByID(dbc, id)
	if err != nil {
		return fmt.Errorf("jobrun: load job: %w", err)
	}
	if job == nil {
		return temporal.NewNonRetryableApplicationError("jobrun: job not found", "not_found", nil)
	}
	if job.Terminal() {
		return nil
	}

	now := time.Now().UTC()
	ok, err := a.Jobs.UpdateFieldsUnlessStatus(dbc, id, []string{types.StatusCanceled, types.StatusSucceeded}, map[string]interface{}{
		"status":       types.StatusRunning,
		"attempts":     gorm.Expr("attempts + 1"),
		"locked_at":    now,
		"heartbeat_at": now,
	})
	if err != nil {
		return fmt.Errorf("jobrun: mark running: %w", err)
	}
	if !ok {
		return nil
	}
	job.Status = types.StatusRunning
	job.Attempts++
	job.LockedAt = &now
	job.HeartbeatAt = &now

	hbCtx, stop := context.WithCancel(ctx)
	defer stop()
	go heartbeat(hbCtx)

	log := a.Log
	if log != nil {
		log = log.With("temporal_attempt", activity.GetInfo(ctx).Attempt)
	}
	jc := jobrt.NewContext(ctx, a.DB, job, a.Jobs, a.Notify, log)
	return jobrt.Execute(a.Registry, jc)
}

func heartbeat(ctx context.Context) {
	t := time.NewTicker(3 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			activity.RecordHeartbeat(ctx)
		}
	}
}
