package listener

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vitrina/internal/catalog"
	"vitrina/internal/exporter"
	"vitrina/internal/pipeline"
	"vitrina/internal/render"
	"vitrina/internal/share"
	"vitrina/internal/storage"
)

type memDrafts struct {
	saved [][]byte
}

func (m *memDrafts) SaveDraft(_ context.Context, raw []byte) (string, error) {
	m.saved = append(m.saved, raw)
	return "draft-1", nil
}

func TestRunCyclePublishesNewVersions(t *testing.T) {
	ctx := context.Background()
	outDir := t.TempDir()
	session := pipeline.NewSession(storage.NewFileStore(filepath.Join(t.TempDir(), "catalog.json")), nil)
	ex := exporter.New(outDir, render.NewPriceFormatter("es-CO", "COP", "$"), nil)
	drafts := &memDrafts{}

	svc := NewService(session, ex, Options{Drafts: drafts, Message: share.Message{From: "tienda@example.com"}})
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	published, err := svc.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if published {
		t.Fatal("published before anything was saved")
	}

	if _, err := session.Update(ctx, "category:add", func(ed *catalog.Editor) error {
		_, err := ed.AddCategory(catalog.CategoryInput{Name: "Velas"})
		return err
	}); err != nil {
		t.Fatal(err)
	}

	published, err = svc.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !published || len(drafts.saved) != 1 {
		t.Fatalf("published=%v drafts=%d", published, len(drafts.saved))
	}
	for _, format := range exporter.Formats {
		if _, err := os.Stat(filepath.Join(outDir, exporter.Filename("20260301-100000", format))); err != nil {
			t.Fatalf("missing %s export: %v", format, err)
		}
	}

	published, err = svc.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if published {
		t.Fatal("republished an unchanged version")
	}

	if _, err := session.Update(ctx, "category:add", func(ed *catalog.Editor) error {
		_, err := ed.AddCategory(catalog.CategoryInput{Name: "Jabones"})
		return err
	}); err != nil {
		t.Fatal(err)
	}
	clock = clock.Add(time.Minute)
	published, err = svc.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !published || len(drafts.saved) != 2 {
		t.Fatalf("published=%v drafts=%d", published, len(drafts.saved))
	}
}

type failingDrafts struct {
	calls int
}

func (f *failingDrafts) SaveDraft(context.Context, []byte) (string, error) {
	f.calls++
	return "", errors.New("mailbox unavailable")
}

func TestRunCycleRetriesShareWithoutRewritingExports(t *testing.T) {
	ctx := context.Background()
	outDir := t.TempDir()
	session := pipeline.NewSession(storage.NewFileStore(filepath.Join(t.TempDir(), "catalog.json")), nil)
	ex := exporter.New(outDir, render.NewPriceFormatter("es-CO", "COP", "$"), nil)
	drafts := &failingDrafts{}

	svc := NewService(session, ex, Options{Drafts: drafts, Message: share.Message{From: "tienda@example.com"}})
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	if _, err := session.Update(ctx, "category:add", func(ed *catalog.Editor) error {
		_, err := ed.AddCategory(catalog.CategoryInput{Name: "Velas"})
		return err
	}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if published, err := svc.RunCycle(ctx); err == nil || published {
			t.Fatalf("cycle %d: published=%v err=%v", i, published, err)
		}
		clock = clock.Add(time.Minute)
	}
	if drafts.calls != 2 {
		t.Fatalf("share attempts=%d", drafts.calls)
	}
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(exporter.Formats) {
		t.Fatalf("export files=%d", len(entries))
	}
}

func TestRunStopsWithContext(t *testing.T) {
	session := pipeline.NewSession(storage.NewFileStore(filepath.Join(t.TempDir(), "catalog.json")), nil)
	ex := exporter.New(t.TempDir(), render.NewPriceFormatter("es-CO", "COP", "$"), nil)
	svc := NewService(session, ex, Options{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Run(ctx); err != nil {
		t.Fatal(err)
	}
}
