package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
	"github.com/yungbote/foodgram-backend/internal/platform/ctxutil"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

// jobRunWorkflow must match temporalx/jobrun.WorkflowName.
const jobRunWorkflow = "job_run"

type JobService interface {
	// Enqueue stores a queued job_run row. Outside a transaction it is
	// dispatched right away; inside one the caller dispatches after commit.
	Enqueue(dbc dbctx.Context, ownerUserID uint, jobType string, payload map[string]any) (*types.JobRun, error)
	Dispatch(dbc dbctx.Context, jobID uuid.UUID) error
	GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
	ListForRequestUser(dbc dbctx.Context, limit int) ([]*types.JobRun, error)
	EventsForRequestUser(dbc dbctx.Context, jobID uuid.UUID) ([]*types.JobRunEvent, error)
	Types() []string
}

type jobService struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   repos.JobRunRepo
	events repos.JobRunEventRepo
	notify JobNotifier
	types  map[string]bool

	temporal          temporalsdkclient.Client
	temporalTaskQueue string
}

// NewJobService accepts jobs whose type is in jobTypes. With a nil Temporal
// client jobs stay queued for the polling worker.
func NewJobService(
	db *gorm.DB,
	baseLog *logger.Logger,
	repo repos.JobRunRepo,
	events repos.JobRunEventRepo,
	notify JobNotifier,
	jobTypes []string,
	tc temporalsdkclient.Client,
	taskQueue string,
) JobService {
	allowed := make(map[string]bool, len(jobTypes))
	for _, t := range jobTypes {
		allowed[t] = true
	}
	return &jobService{
		db:                db,
		log:               baseLog.With("service", "JobService"),
		repo:              repo,
		events:            events,
		notify:            notify,
		types:             allowed,
		temporal:          tc,
		temporalTaskQueue: strings.TrimSpace(taskQueue),
	}
}

func (s *jobService) Types() []string {
	out := make([]string, 0, len(s.types))
	for t := range s.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (s *jobService) Enqueue(dbc dbctx.Context, ownerUserID uint, jobType string, payload map[string]any) (*types.JobRun, error) {
	if ownerUserID == 0 {
		return nil, pkgerrors.ErrUnauthorized
	}
	jobType = strings.TrimSpace(jobType)
	if jobType == "" {
		return nil, pkgerrors.Field("job_type", "This field is required.")
	}
	if !s.types[jobType] {
		return nil, pkgerrors.Field("job_type", fmt.Sprintf("Unknown job type %q.", jobType))
	}
	if payload == nil {
		payload = map[string]any{}
	}
	trace := ctxutil.TraceFields(dbc.Ctx)
	for i := 0; i+1 < len(trace); i += 2 {
		if k, _ := trace[i].(string); k != "" {
			if _, ok := payload[k]; !ok {
				payload[k] = trace[i+1]
			}
		}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Field("payload", "Payload must be a JSON object.")
	}

	now := time.Now().UTC()
	job := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     jobType,
		Status:      types.StatusQueued,
		Stage:       "queued",
		Message:     "Queued",
		Payload:     datatypes.JSON(b),
		Result:      datatypes.JSON([]byte(`{}`)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.repo.Create(dbc, []*types.JobRun{job}); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.notify.JobCreated(ownerUserID, job)

	// Workflow ids are job ids; starting one before commit could run a row
	// nobody else can see yet.
	if isDBTransaction(dbc.Tx) {
		s.log.Debug("Job enqueued inside transaction; awaiting dispatch after commit", "job_id", job.ID, "job_type", job.JobType)
		return job, nil
	}
	if err := s.Dispatch(dbctx.Context{Ctx: dbc.Ctx}, job.ID); err != nil {
		return job, err
	}
	return job, nil
}

type txCommitter interface {
	Commit() error
	Rollback() error
}

// gorm.DB pointers are cloned freely, so pointer comparison says nothing about
// whether a transaction is open.
func isDBTransaction(db *gorm.DB) bool {
	if db == nil || db.Statement == nil || db.Statement.ConnPool == nil {
		return false
	}
	_, ok := db.Statement.ConnPool.(txCommitter)
	return ok
}

func (s *jobService) Dispatch(dbc dbctx.Context, jobID uuid.UUID) error {
	if jobID == uuid.Nil {
		return fmt.Errorf("%w: missing job id", pkgerrors.ErrInvalidArgument)
	}
	if s.temporal == nil {
		return nil
	}
	ctx := ctxutil.Default(dbc.Ctx)

	err := s.startWorkflow(ctx, jobID)
	if err == nil {
		return nil
	}
	var already *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &already) {
		return nil
	}

	now := time.Now().UTC()
	if uerr := s.repo.UpdateFields(dbctx.Context{Ctx: ctx}, jobID, map[string]interface{}{
		"status":        types.StatusFailed,
		"stage":         "dispatch",
		"message":       "",
		"error":         err.Error(),
		"last_error_at": now,
		"locked_at":     nil,
	}); uerr != nil {
		s.log.Warn("Failed to mark undispatched job failed", "job_id", jobID, "error", uerr)
	}
	if j, gerr := s.repo.GetByID(dbctx.Context{Ctx: ctx}, jobID); gerr == nil && j != nil {
		s.notify.JobFailed(j.OwnerUserID, j, "dispatch", err.Error())
	}
	return fmt.Errorf("start temporal workflow: %w", err)
}

func (s *jobService) startWorkflow(ctx context.Context, jobID uuid.UUID) error {
	tq := s.temporalTaskQueue
	if tq == "" {
		tq = "foodgram"
	}
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:                    jobID.String(),
		TaskQueue:             tq,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	_, err := s.temporal.ExecuteWorkflow(ctx, opts, jobRunWorkflow)
	return err
}

func (s *jobService) GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	userID := ctxutil.UserID(dbc.Ctx)
	if userID == 0 {
		return nil, pkgerrors.ErrUnauthorized
	}
	if jobID == uuid.Nil {
		return nil, pkgerrors.ErrNotFound
	}
	job, err := s.repo.GetByID(dbc, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	// Other users' jobs look exactly like missing ones.
	if job == nil || job.OwnerUserID != userID {
		return nil, pkgerrors.ErrNotFound
	}
	return job, nil
}

func (s *jobService) ListForRequestUser(dbc dbctx.Context, limit int) ([]*types.JobRun, error) {
	userID := ctxutil.UserID(dbc.Ctx)
	if userID == 0 {
		return nil, pkgerrors.ErrUnauthorized
	}
	return s.repo.ListByOwner(dbc, userID, limit)
}

func (s *jobService) EventsForRequestUser(dbc dbctx.Context, jobID uuid.UUID) ([]*types.JobRunEvent, error) {
	if _, err := s.GetByIDForRequestUser(dbc, jobID); err != nil {
		return nil, err
	}
	return s.events.ListByJob(dbc, jobID)
}
