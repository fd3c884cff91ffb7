package recipes

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/foodgram-backend/internal/data/repos/testutil"
	types "github.com/yungbote/foodgram-backend/internal/domain"
	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/pkg/pointers"
)

func TestRecipeRepoListFilters(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewRecipeRepo(db, testutil.Logger(t))

	author := testutil.SeedUser(t, ctx, tx, "recipe-author")
	viewer := testutil.SeedUser(t, ctx, tx, "recipe-viewer")
	salt := testutil.SeedIngredient(t, ctx, tx, "recipe-repo-salt", "g")

	old := testutil.SeedRecipe(t, ctx, tx, author.ID, "old", map[uint]int{salt.ID: 5})
	mid := testutil.SeedRecipe(t, ctx, tx, author.ID, "mid", map[uint]int{salt.ID: 1})
	newest := testutil.SeedRecipe(t, ctx, tx, viewer.ID, "newest", nil)

	base := time.Now().Add(-time.Hour)
	for i, r := range []*types.Recipe{old, mid, newest} {
		if err := tx.Model(&types.Recipe{}).Where("id = ?", r.ID).Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error; err != nil {
			t.Fatalf("set created_at: %v", err)
		}
	}

	testutil.SeedFavorite(t, ctx, tx, viewer.ID, mid.ID)
	testutil.SeedCartItem(t, ctx, tx, viewer.ID, old.ID)

	rows, total, err := repo.List(dbc, ListFilter{AuthorID: pointers.Ptr[uint](author.ID)}, 0, 10)
	if err != nil {
		t.Fatalf("List by author: %v", err)
	}
	if total != 2 || len(rows) != 2 || rows[0].ID != mid.ID || rows[1].ID != old.ID {
		t.Fatalf("List by author: total=%d rows=%v", total, ids(rows))
	}
	if rows[1].Author == nil || rows[1].Author.ID != author.ID {
		t.Fatalf("expected author preloaded")
	}
	if len(rows[1].Ingredients) != 1 || rows[1].Ingredients[0].Ingredient == nil || rows[1].Ingredients[0].Amount != 5 {
		t.Fatalf("expected ingredients preloaded, got %+v", rows[1].Ingredients)
	}

	rows, total, err = repo.List(dbc, ListFilter{ViewerID: viewer.ID, IsFavorited: pointers.Ptr(true), AuthorID: pointers.Ptr[uint](author.ID)}, 0, 10)
	if err != nil || total != 1 || rows[0].ID != mid.ID {
		t.Fatalf("List favorited: total=%d rows=%v err=%v", total, ids(rows), err)
	}

	rows, total, err = repo.List(dbc, ListFilter{ViewerID: viewer.ID, IsInShoppingCart: pointers.Ptr(false), AuthorID: pointers.Ptr[uint](author.ID)}, 0, 10)
	if err != nil || total != 1 || rows[0].ID != mid.ID {
		t.Fatalf("List not in cart: total=%d rows=%v err=%v", total, ids(rows), err)
	}

	// Membership filters are ignored without a viewer.
	_, total, err = repo.List(dbc, ListFilter{IsFavorited: pointers.Ptr(true), AuthorID: pointers.Ptr[uint](author.ID)}, 0, 10)
	if err != nil || total != 2 {
		t.Fatalf("List anonymous: total=%d err=%v", total, err)
	}

	rows, total, err = repo.List(dbc, ListFilter{AuthorID: pointers.Ptr[uint](author.ID)}, 1, 1)
	if err != nil || total != 2 || len(rows) != 1 || rows[0].ID != old.ID {
		t.Fatalf("List page 2: total=%d rows=%v err=%v", total, ids(rows), err)
	}

	counts, err := repo.CountByAuthors(dbc, []uint{author.ID, viewer.ID})
	if err != nil || counts[author.ID] != 2 || counts[viewer.ID] != 1 {
		t.Fatalf("CountByAuthors: %v err=%v", counts, err)
	}

	if err := repo.UpdateFields(dbc, old.ID, map[string]interface{}{"name": "renamed"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err := repo.GetByID(dbc, old.ID)
	if err != nil || got == nil || got.Name != "renamed" {
		t.Fatalf("GetByID: got=%+v err=%v", got, err)
	}
}

func TestRecipeIngredientRepoCartLines(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewRecipeIngredientRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "cart-lines")
	salt := testutil.SeedIngredient(t, ctx, tx, "cart-lines-salt", "g")
	sugar := testutil.SeedIngredient(t, ctx, tx, "cart-lines-sugar", "kg")

	r1 := testutil.SeedRecipe(t, ctx, tx, u.ID, "r1", map[uint]int{salt.ID: 5, sugar.ID: 2})
	r2 := testutil.SeedRecipe(t, ctx, tx, u.ID, "r2", map[uint]int{salt.ID: 10})
	testutil.SeedRecipe(t, ctx, tx, u.ID, "not-in-cart", map[uint]int{salt.ID: 100})
	testutil.SeedCartItem(t, ctx, tx, u.ID, r1.ID)
	testutil.SeedCartItem(t, ctx, tx, u.ID, r2.ID)

	lines, err := repo.CartLines(dbc, u.ID)
	if err != nil {
		t.Fatalf("CartLines: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("CartLines: expected 3 rows, got %d", len(lines))
	}
	sum := 0
	for _, l := range lines {
		if l.Name == "cart-lines-salt" {
			sum += l.Amount
		}
	}
	if sum != 15 {
		t.Fatalf("CartLines: expected salt total 15, got %d", sum)
	}

	if err := repo.FullDeleteByRecipeIDs(dbc, []uint{r1.ID}); err != nil {
		t.Fatalf("FullDeleteByRecipeIDs: %v", err)
	}
	lines, err = repo.CartLines(dbc, u.ID)
	if err != nil || len(lines) != 1 {
		t.Fatalf("CartLines after delete: len=%d err=%v", len(lines), err)
	}
}

func ids(rows []*types.Recipe) []uint {
	out := make([]uint, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}
