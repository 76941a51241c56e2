package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"vitrina/internal/catalog"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "catalog.json")
	store := NewFileStore(path)

	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Tree != nil {
		t.Fatalf("tree=%v", snap.Tree)
	}

	c := testCatalog()
	v1, err := store.Save(ctx, c, "ignored")
	if err != nil {
		t.Fatal(err)
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(blob), "{\n  \"config\"") {
		t.Fatalf("unexpected layout: %.40s", blob)
	}
	if strings.Index(string(blob), `"ropa": [`) > strings.Index(string(blob), `"hogar": [`) {
		t.Fatal("buckets not in category order")
	}

	snap, err = store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Version != v1 {
		t.Fatalf("version=%s want %s", snap.Version, v1)
	}
	if got := catalog.Reconcile(snap.Tree); !reflect.DeepEqual(got, c) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", got, c)
	}

	// last writer wins regardless of base version
	if _, err := store.Save(ctx, catalog.DefaultCatalog(), "stale"); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestFileStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}
