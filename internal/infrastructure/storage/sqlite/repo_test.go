package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteRepoSetGet(t *testing.T) {
	repo, err := New(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if _, ok, err := repo.Get(ctx, "alerts-storage"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := repo.Set(ctx, "alerts-storage", []byte(`{"state":{"alerts":[]},"version":0}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := repo.Set(ctx, "alerts-storage", []byte(`{"state":{"alerts":[{"id":"a"}]},"version":0}`)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	got, ok, err := repo.Get(ctx, "alerts-storage")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"state":{"alerts":[{"id":"a"}]},"version":0}` {
		t.Errorf("unexpected value %s", got)
	}
}

func TestSQLiteRepoDelete(t *testing.T) {
	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	_ = repo.Set(ctx, "settings-storage", []byte(`{}`))
	if err := repo.Delete(ctx, "settings-storage"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, "settings-storage"); err != nil {
		t.Fatalf("Delete of missing key failed: %v", err)
	}
	if _, ok, _ := repo.Get(ctx, "settings-storage"); ok {
		t.Errorf("key still present after delete")
	}
}

func TestSQLiteRepoSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	repo, err := New(path)
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	if err := repo.Set(ctx, "portfolio-storage", []byte(`{"state":{"holdings":[]}}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	repo.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	if _, ok, err := reopened.Get(ctx, "portfolio-storage"); err != nil || !ok {
		t.Fatalf("value lost after reopen: ok=%v err=%v", ok, err)
	}
}
