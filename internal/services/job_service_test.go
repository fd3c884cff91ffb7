package services

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/foodgram-backend/internal/data/repos"
	"github.com/yungbote/foodgram-backend/internal/data/repos/testutil"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
	"github.com/yungbote/foodgram-backend/internal/platform/ctxutil"
)

func newTestJobService(t *testing.T, env *testEnv) JobService {
	t.Helper()
	log := testutil.Logger(t)
	notify := NewJobNotifier(log, env.eventRepo, nil)
	return NewJobService(env.db, log, env.jobRepo, env.eventRepo, notify, []string{"hello", "random_meal"}, nil, "")
}

func TestJobEnqueueWithoutTemporalStaysQueued(t *testing.T) {
	env := newTestEnv(t)
	jobs := newTestJobService(t, env)
	owner := env.register(t, "owner")

	job, err := jobs.Enqueue(asUser(owner.ID), owner.ID, " hello ", map[string]any{"name": "world"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if job.Status != types.StatusQueued || job.JobType != "hello" || job.OwnerUserID != owner.ID {
		t.Fatalf("unexpected job: %+v", job)
	}

	got, err := jobs.GetByIDForRequestUser(asUser(owner.ID), job.ID)
	if err != nil {
		t.Fatalf("GetByIDForRequestUser: %v", err)
	}
	if got.Status != types.StatusQueued {
		t.Fatalf("status: %s", got.Status)
	}

	events, err := jobs.EventsForRequestUser(asUser(owner.ID), job.ID)
	if err != nil {
		t.Fatalf("EventsForRequestUser: %v", err)
	}
	if len(events) != 1 || events[0].Kind != string(types.JobEventCreated) {
		t.Fatalf("expected one created event, got %d", len(events))
	}

	list, err := jobs.ListForRequestUser(asUser(owner.ID), 10)
	if err != nil {
		t.Fatalf("ListForRequestUser: %v", err)
	}
	if len(list) != 1 || list[0].ID != job.ID {
		t.Fatalf("unexpected list: %d jobs", len(list))
	}
}

func TestJobEnqueueRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)
	jobs := newTestJobService(t, env)
	owner := env.register(t, "owner")

	for _, jt := range []string{"", "reindex"} {
		_, err := jobs.Enqueue(asUser(owner.ID), owner.ID, jt, nil)
		verr, ok := pkgerrors.AsValidation(err)
		if !ok || len(verr.Fields["job_type"]) == 0 {
			t.Fatalf("job type %q: expected job_type error, got %v", jt, err)
		}
	}
	if _, err := jobs.Enqueue(anon(), 0, "hello", nil); !errors.Is(err, pkgerrors.ErrUnauthorized) {
		t.Fatalf("anonymous: expected ErrUnauthorized, got %v", err)
	}
	if got := jobs.Types(); len(got) != 2 || got[0] != "hello" {
		t.Fatalf("Types: %v", got)
	}
}

func TestJobAccessIsOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	jobs := newTestJobService(t, env)
	owner := env.register(t, "owner")
	other := env.register(t, "other")

	job, err := jobs.Enqueue(asUser(owner.ID), owner.ID, "hello", nil)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := jobs.GetByIDForRequestUser(asUser(other.ID), job.ID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("other user: expected ErrNotFound, got %v", err)
	}
	if _, err := jobs.EventsForRequestUser(asUser(other.ID), job.ID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("other user events: expected ErrNotFound, got %v", err)
	}
	if _, err := jobs.GetByIDForRequestUser(asUser(owner.ID), uuid.New()); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("unknown id: expected ErrNotFound, got %v", err)
	}
}

// unreachableTemporal refuses every workflow start.
type unreachableTemporal struct {
	temporalsdkclient.Client
}

func (unreachableTemporal) ExecuteWorkflow(context.Context, temporalsdkclient.StartWorkflowOptions, interface{}, ...interface{}) (temporalsdkclient.WorkflowRun, error) {
	return nil, errors.New("temporal unavailable")
}

type stuckJobRuns struct {
	repos.JobRunRepo
}

func (stuckJobRuns) UpdateFields(dbctx.Context, uuid.UUID, map[string]interface{}) error {
	return errors.New("database is locked")
}

func TestJobDispatchFailureMarksJobFailed(t *testing.T) {
	env := newTestEnv(t)
	log := testutil.Logger(t)
	owner := env.register(t, "owner")
	notify := NewJobNotifier(log, env.eventRepo, nil)
	jobs := NewJobService(env.db, log, env.jobRepo, env.eventRepo, notify, []string{"hello"}, unreachableTemporal{}, "foodgram")

	job, err := jobs.Enqueue(asUser(owner.ID), owner.ID, "hello", nil)
	if err == nil || job == nil {
		t.Fatalf("expected dispatch error with the stored job, got job=%v err=%v", job, err)
	}
	got, err := env.jobRepo.GetByID(anon(), job.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.StatusFailed || got.Stage != "dispatch" || got.Error != "temporal unavailable" {
		t.Fatalf("job after failed dispatch: status=%s stage=%s error=%q", got.Status, got.Stage, got.Error)
	}
}

func TestJobDispatchFailureSurvivesStatusWriteError(t *testing.T) {
	env := newTestEnv(t)
	log := testutil.Logger(t)
	owner := env.register(t, "owner")
	notify := NewJobNotifier(log, env.eventRepo, nil)
	jobs := NewJobService(env.db, log, stuckJobRuns{env.jobRepo}, env.eventRepo, notify, []string{"hello"}, unreachableTemporal{}, "foodgram")

	job, err := jobs.Enqueue(asUser(owner.ID), owner.ID, "hello", nil)
	if err == nil || job == nil {
		t.Fatalf("expected dispatch error, got job=%v err=%v", job, err)
	}
	got, err := env.jobRepo.GetByID(anon(), job.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.StatusQueued {
		t.Fatalf("status write was expected to fail; got %s", got.Status)
	}
}

func TestJobEnqueueStampsTraceIDs(t *testing.T) {
	env := newTestEnv(t)
	jobs := newTestJobService(t, env)
	owner := env.register(t, "owner")

	dbc := asUser(owner.ID)
	dbc.Ctx = ctxutil.WithTraceData(dbc.Ctx, &ctxutil.TraceData{TraceID: "trace-1", RequestID: "req-1"})
	job, err := jobs.Enqueue(dbc, owner.ID, "hello", map[string]any{"request_id": "caller-set"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["trace_id"] != "trace-1" {
		t.Fatalf("trace_id: %v", payload["trace_id"])
	}
	if payload["request_id"] != "caller-set" {
		t.Fatalf("request_id overwritten: %v", payload["request_id"])
	}
}
