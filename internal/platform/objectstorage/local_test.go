package objectstorage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/foodgram-backend/internal/pkg/dbctx"
	"github.com/yungbote/foodgram-backend/internal/platform/logger"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	ls, err := NewLocalStore(log, t.TempDir(), "http://localhost:8080/")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return ls
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ls := newTestLocalStore(t)
	dbc := dbctx.Context{Ctx: context.Background()}

	if err := ls.UploadFile(dbc, CategoryRecipe, "recipes/1.png", strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	p := filepath.Join(ls.Root(), "recipe", "recipes", "1.png")
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("content: got=%q", data)
	}
	if got, want := ls.GetPublicURL(CategoryRecipe, "recipes/1.png"), "http://localhost:8080/media/recipe/recipes/1.png"; got != want {
		t.Fatalf("GetPublicURL: want=%q got=%q", want, got)
	}

	if err := ls.DeleteFile(dbc, CategoryRecipe, "recipes/1.png"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}
	// deleting twice is fine
	if err := ls.DeleteFile(dbc, CategoryRecipe, "recipes/1.png"); err != nil {
		t.Fatalf("DeleteFile (missing): %v", err)
	}
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	ls := newTestLocalStore(t)
	err := ls.UploadFile(dbctx.Context{Ctx: context.Background()}, CategoryAvatar, "../../etc/passwd", strings.NewReader("x"))
	if err == nil {
		t.Fatalf("UploadFile: expected error for traversal key")
	}
}
