package auth

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/foodgram-backend/internal/data/repos/testutil"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUserTokenRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "usertokenrepo")

	makeToken := func(access string, expiresIn time.Duration) *types.UserToken {
		return &types.UserToken{
			UserID:      u.ID,
			AccessToken: access,
			ExpiresAt:   time.Now().Add(expiresIn),
		}
	}

	t1 := makeToken("access-1", time.Hour)
	if _, err := repo.Create(dbc, []*types.UserToken{t1}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByAccessToken(dbc, "access-1")
	if err != nil || got == nil || got.UserID != u.ID {
		t.Fatalf("GetByAccessToken: got=%+v err=%v", got, err)
	}
	if rows, err := repo.GetByUserIDs(dbc, []uint{u.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByUserIDs: err=%v len=%d", err, len(rows))
	}

	if err := repo.FullDeleteByAccessTokens(dbc, []string{"access-1"}); err != nil {
		t.Fatalf("FullDeleteByAccessTokens: %v", err)
	}
	got, err = repo.GetByAccessToken(dbc, "access-1")
	if err != nil || got != nil {
		t.Fatalf("after delete GetByAccessToken: got=%+v err=%v", got, err)
	}

	expired := makeToken("access-2", -time.Hour)
	live := makeToken("access-3", time.Hour)
	if _, err := repo.Create(dbc, []*types.UserToken{expired, live}); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}
	n, err := repo.FullDeleteExpired(dbc, time.Now())
	if err != nil {
		t.Fatalf("FullDeleteExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("FullDeleteExpired: expected 1 row, got %d", n)
	}

	if err := repo.FullDeleteByUserIDs(dbc, []uint{u.ID}); err != nil {
		t.Fatalf("FullDeleteByUserIDs: %v", err)
	}
	if rows, err := repo.GetByUserIDs(dbc, []uint{u.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("after FullDeleteByUserIDs: err=%v len=%d", err, len(rows))
	}
}
