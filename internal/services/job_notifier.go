package services

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"

	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/data/repos"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

type JobNotifier interface {
	JobCreated(userID uint, job *types.JobRun)
	JobProgress(userID uint, job *types.JobRun, stage string, progress int, message string)
	JobFailed(userID uint, job *types.JobRun, stage string, errorMessage string)
	JobDone(userID uint, job *types.JobRun)
}

// JobEvent is the message published on the job event bus.
type JobEvent struct {
	Kind     types.JobEventKind `json:"kind"`
	UserID   uint               `json:"user_id"`
	JobID    string             `json:"job_id"`
	JobType  string             `json:"job_type"`
	Status   string             `json:"status"`
	Stage    string             `json:"stage"`
	Progress int                `json:"progress"`
	Message  string             `json:"message,omitempty"`
	Error    string             `json:"error,omitempty"`
	Result   json.RawMessage    `json:"result,omitempty"`
	At       time.Time          `json:"at"`
}

type jobNotifier struct {
	log    *logger.Logger
	events repos.JobRunEventRepo
	bus    JobEventBus
}

// NewJobNotifier records every lifecycle event in the job_run_event ledger and
// forwards it to bus when one is configured. Both sinks are best effort.
func NewJobNotifier(baseLog *logger.Logger, events repos.JobRunEventRepo, bus JobEventBus) JobNotifier {
	return &jobNotifier{
		log:    baseLog.With("service", "JobNotifier"),
		events: events,
		bus:    bus,
	}
}

func (n *jobNotifier) JobCreated(userID uint, job *types.JobRun) {
	n.emit(JobEvent{
		Kind:     types.JobEventCreated,
		UserID:   userID,
		Stage:    job.Stage,
		Progress: job.Progress,
		Message:  job.Message,
	}, job)
}

func (n *jobNotifier) JobProgress(userID uint, job *types.JobRun, stage string, progress int, message string) {
	n.emit(JobEvent{
		Kind:     types.JobEventProgress,
		UserID:   userID,
		Stage:    stage,
		Progress: progress,
		Message:  message,
	}, job)
}

func (n *jobNotifier) JobFailed(userID uint, job *types.JobRun, stage string, errorMessage string) {
	n.emit(JobEvent{
		Kind:     types.JobEventFailed,
		UserID:   userID,
		Stage:    stage,
		Progress: job.Progress,
		Error:    errorMessage,
	}, job)
}

func (n *jobNotifier) JobDone(userID uint, job *types.JobRun) {
	n.emit(JobEvent{
		Kind:     types.JobEventSucceeded,
		UserID:   userID,
		Stage:    job.Stage,
		Progress: 100,
		Result:   json.RawMessage(job.Result),
	}, job)
}

func (n *jobNotifier) emit(ev JobEvent, job *types.JobRun) {
	if job == nil {
		return
	}
	ev.JobID = job.ID.String()
	ev.JobType = job.JobType
	ev.Status = job.Status
	ev.At = time.Now().UTC()

	n.log.Info("job event",
		"kind", ev.Kind,
		"job_id", ev.JobID,
		"job_type", ev.JobType,
		"status", ev.Status,
		"stage", ev.Stage,
		"progress", ev.Progress,
		"error", ev.Error,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if n.events != nil {
		msg := ev.Message
		if ev.Error != "" {
			msg = ev.Error
		}
		row := &types.JobRunEvent{
			JobID:       job.ID,
			OwnerUserID: ev.UserID,
			JobType:     ev.JobType,
			Kind:        string(ev.Kind),
			Status:      ev.Status,
			Stage:       ev.Stage,
			Progress:    ev.Progress,
			Message:     msg,
		}
		if len(ev.Result) > 0 {
			row.Data = datatypes.JSON(ev.Result)
		}
		if _, err := n.events.Create(dbctx.Context{Ctx: ctx}, []*types.JobRunEvent{row}); err != nil {
			n.log.Warn("job event ledger write failed", "job_id", ev.JobID, "error", err)
		}
	}
	if n.bus != nil {
		if err := n.bus.Publish(ctx, ev); err != nil {
			n.log.Warn("job event publish failed", "job_id", ev.JobID, "error", err)
		}
	}
}
