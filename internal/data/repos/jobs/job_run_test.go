package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/foodgram-backend/internal/data/repos/testutil"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"gorm.io/datatypes"
)

func TestJobRunRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	owner := testutil.SeedUser(t, ctx, tx, "jobrunrepo")

	mk := func(status string, attempts int, age time.Duration) *types.JobRun {
		return &types.JobRun{
			ID:          uuid.New(),
			OwnerUserID: owner.ID,
			JobType:     "test_job",
			Status:      status,
			Stage:       status,
			Attempts:    attempts,
			Payload:     datatypes.JSON([]byte("{}")),
			Result:      datatypes.JSON([]byte("{}")),
			CreatedAt:   now.Add(-age),
			UpdatedAt:   now.Add(-age),
		}
	}

	queued := mk(types.StatusQueued, 0, 5*time.Hour)
	failed := mk(types.StatusFailed, 1, 4*time.Hour)
	failed.LastErrorAt = testutil.PtrTime(now.Add(-2 * time.Hour))
	exhausted := mk(types.StatusFailed, 3, 3*time.Hour)
	exhausted.LastErrorAt = testutil.PtrTime(now.Add(-2 * time.Hour))
	tooSoon := mk(types.StatusFailed, 1, 3*time.Hour)
	tooSoon.LastErrorAt = testutil.PtrTime(now)
	staleRunning := mk(types.StatusRunning, 1, 2*time.Hour)
	staleRunning.HeartbeatAt = testutil.PtrTime(now.Add(-10 * time.Hour))

	created, err := repo.Create(dbc, []*types.JobRun{queued, failed, exhausted, tooSoon, staleRunning})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 5 {
		t.Fatalf("Create: expected 5, got %d", len(created))
	}

	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{queued.ID, failed.ID}); err != nil || len(rows) != 2 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}

	// Claims walk the runnable set oldest first and skip exhausted or delayed retries.
	for i, want := range []uuid.UUID{queued.ID, failed.ID, staleRunning.ID} {
		got, err := repo.ClaimNextRunnable(dbc, 3, time.Hour, time.Hour)
		if err != nil {
			t.Fatalf("ClaimNextRunnable #%d: %v", i+1, err)
		}
		if got == nil || got.ID != want {
			t.Fatalf("ClaimNextRunnable #%d: expected %v got %v", i+1, want, got)
		}
		if got.Status != types.StatusRunning {
			t.Fatalf("ClaimNextRunnable #%d: expected running status, got %q", i+1, got.Status)
		}
	}
	if got, err := repo.ClaimNextRunnable(dbc, 3, time.Hour, time.Hour); err != nil || got != nil {
		t.Fatalf("ClaimNextRunnable #4: expected nil, got %v err=%v", got, err)
	}

	reloaded, err := repo.GetByID(dbc, failed.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Attempts != 2 || reloaded.Status != types.StatusRunning {
		t.Fatalf("expected claim to bump attempts to 2, got %+v", reloaded)
	}

	ok, err := repo.UpdateFieldsUnlessStatus(dbc, queued.ID, []string{types.StatusCanceled}, map[string]interface{}{"status": types.StatusSucceeded})
	if err != nil || !ok {
		t.Fatalf("UpdateFieldsUnlessStatus: ok=%v err=%v", ok, err)
	}
	ok, err = repo.UpdateFieldsUnlessStatus(dbc, queued.ID, []string{types.StatusSucceeded}, map[string]interface{}{"status": types.StatusFailed})
	if err != nil || ok {
		t.Fatalf("UpdateFieldsUnlessStatus (blocked): ok=%v err=%v", ok, err)
	}

	if err := repo.Heartbeat(dbc, failed.ID); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}

	exists, err := repo.ExistsRunnable(dbc, owner.ID, "test_job")
	if err != nil || !exists {
		t.Fatalf("ExistsRunnable: exists=%v err=%v", exists, err)
	}

	listed, err := repo.ListByOwner(dbc, owner.ID, 2)
	if err != nil || len(listed) != 2 || listed[0].ID != staleRunning.ID {
		t.Fatalf("ListByOwner: len=%d err=%v", len(listed), err)
	}

	if err := repo.FullDeleteByOwnerIDs(dbc, []uint{owner.ID}); err != nil {
		t.Fatalf("FullDeleteByOwnerIDs: %v", err)
	}
	if got, _ := repo.GetByID(dbc, queued.ID); got != nil {
		t.Fatalf("expected jobs removed with owner")
	}
}
