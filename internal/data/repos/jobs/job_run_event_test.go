package jobs

import (
	"context"
	"testing"

	"github.com/yungbote/foodgram-backend/internal/data/repos/testutil"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
)

func TestJobRunEventRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewJobRunEventRepo(db, testutil.Logger(t))

	owner := testutil.SeedUser(t, ctx, tx, "jobevents")
	job := testutil.SeedJobRun(t, ctx, tx, owner.ID, "hello", types.StatusQueued)

	if _, err := repo.Create(dbc, []*types.JobRunEvent{
		{JobID: job.ID, OwnerUserID: owner.ID, JobType: job.JobType, Kind: string(types.JobEventCreated), Status: types.StatusQueued, Stage: "queued"},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	events, err := repo.ListByJob(dbc, job.ID)
	if err != nil {
		t.Fatalf("ListByJob: %v", err)
	}
	if len(events) != 1 || events[0].Kind != string(types.JobEventCreated) {
		t.Fatalf("ListByJob: unexpected events %+v", events)
	}
}
