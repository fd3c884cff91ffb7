package relations

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/foodgram-backend/internal/data/repos/testutil"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
)

func TestRecipeRelationRepos(t *testing.T) {
	for name, ctor := range map[string]func(*gorm.DB) RecipeRelationRepo{
		"favorite": func(db *gorm.DB) RecipeRelationRepo { return NewFavoriteRepo(db, testutil.Logger(t)) },
		"cart":     func(db *gorm.DB) RecipeRelationRepo { return NewShoppingCartRepo(db, testutil.Logger(t)) },
	} {
		t.Run(name, func(t *testing.T) {
			db := testutil.DB(t)
			tx := testutil.Tx(t, db)
			ctx := context.Background()
			dbc := dbctx.Context{Ctx: ctx, Tx: tx}
			repo := ctor(db)

			u := testutil.SeedUser(t, ctx, tx, "rel-"+name)
			r1 := testutil.SeedRecipe(t, ctx, tx, u.ID, "r1", nil)
			r2 := testutil.SeedRecipe(t, ctx, tx, u.ID, "r2", nil)

			if err := repo.Add(dbc, u.ID, r1.ID); err != nil {
				t.Fatalf("Add: %v", err)
			}
			ok, err := repo.Exists(dbc, u.ID, r1.ID)
			if err != nil || !ok {
				t.Fatalf("Exists: ok=%v err=%v", ok, err)
			}

			tx.SavePoint("dup")
			if err := repo.Add(dbc, u.ID, r1.ID); !errors.Is(err, gorm.ErrDuplicatedKey) {
				t.Fatalf("Add duplicate: expected ErrDuplicatedKey, got %v", err)
			}
			tx.RollbackTo("dup")

			members, err := repo.MemberRecipeIDs(dbc, u.ID, []uint{r1.ID, r2.ID})
			if err != nil || !members[r1.ID] || members[r2.ID] {
				t.Fatalf("MemberRecipeIDs: %v err=%v", members, err)
			}

			removed, err := repo.Remove(dbc, u.ID, r1.ID)
			if err != nil || !removed {
				t.Fatalf("Remove: removed=%v err=%v", removed, err)
			}
			removed, err = repo.Remove(dbc, u.ID, r1.ID)
			if err != nil || removed {
				t.Fatalf("Remove absent: removed=%v err=%v", removed, err)
			}

			if err := repo.Add(dbc, u.ID, r2.ID); err != nil {
				t.Fatalf("Add r2: %v", err)
			}
			if err := repo.FullDeleteByRecipeIDs(dbc, []uint{r2.ID}); err != nil {
				t.Fatalf("FullDeleteByRecipeIDs: %v", err)
			}
			ok, _ = repo.Exists(dbc, u.ID, r2.ID)
			if ok {
				t.Fatalf("expected relation removed with recipe")
			}
		})
	}
}
