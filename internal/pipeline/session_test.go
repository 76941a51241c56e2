package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"vitrina/internal"
	"vitrina/internal/catalog"
	"vitrina/internal/importer"
	"vitrina/internal/render"
	"vitrina/internal/storage"
)

func openSession(t *testing.T) (*Session, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "vitrina.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSession(db, nil), db
}

func TestSessionUpdatePersists(t *testing.T) {
	ctx := context.Background()
	s, db := openSession(t)

	var catID string
	turn, err := s.Update(ctx, "category:add", func(ed *catalog.Editor) error {
		id, err := ed.AddCategory(catalog.CategoryInput{Name: "Ropa", Icon: "👕"})
		catID = id
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if turn.Version != "1" {
		t.Fatalf("version=%q", turn.Version)
	}

	turn, err = s.Update(ctx, "product:add", func(ed *catalog.Editor) error {
		_, err := ed.AddProduct(catID, catalog.ProductInput{Name: "Camisa", Price: "45000"})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if turn.Version != "2" {
		t.Fatalf("version=%q", turn.Version)
	}

	current, err := s.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if current.Version != "2" || len(current.Catalog.Products[catID]) != 1 {
		t.Fatalf("current=%+v", current)
	}
	products, err := db.ListProducts(ctx, catID)
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 || products[0].Name != "Camisa" {
		t.Fatalf("mirror=%+v", products)
	}
}

func TestSessionUpdateErrorSavesNothing(t *testing.T) {
	ctx := context.Background()
	s, db := openSession(t)

	_, err := s.Update(ctx, "category:delete", func(ed *catalog.Editor) error {
		return ed.DeleteCategory("missing")
	})
	if !errors.Is(err, catalog.ErrCategoryNotFound) {
		t.Fatalf("err=%v", err)
	}
	n, err := db.SnapshotCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("snapshots=%d", n)
	}
}

func TestSessionReplaceConflict(t *testing.T) {
	ctx := context.Background()
	s, _ := openSession(t)

	first, err := s.Replace(ctx, catalog.DefaultCatalog(), "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Replace(ctx, catalog.DefaultCatalog(), first.Version); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Replace(ctx, catalog.DefaultCatalog(), first.Version); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestImportDocumentMergesByName(t *testing.T) {
	ctx := context.Background()
	s := NewSession(storage.NewFileStore(filepath.Join(t.TempDir(), "catalog.json")), nil)

	if _, err := s.Update(ctx, "product:add", func(ed *catalog.Editor) error {
		_, err := ed.AddProduct("productos", catalog.ProductInput{Name: "Camisa de lino", Price: "40.000"})
		return err
	}); err != nil {
		t.Fatal(err)
	}

	text := "ROPA:\nCamisa de lino .... $45.000\nPantalón clásico - COP 89.900\n"
	report, err := s.ImportDocument(ctx, importer.KindText, []byte(text), 0.85)
	if err != nil {
		t.Fatal(err)
	}
	if report.Lines != 2 || report.Matched != 1 || report.Updated != 1 || report.Added != 1 || report.CategoriesCreated != 1 {
		t.Fatalf("report=%+v", report)
	}

	turn, err := s.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	mine := turn.Catalog.Products["productos"]
	if len(mine) != 1 || mine[0].Price != "45.000" {
		t.Fatalf("productos=%+v", mine)
	}
	ropa := turn.Catalog.Products["ropa"]
	if len(ropa) != 1 || ropa[0].Name != "Pantalón clásico" {
		t.Fatalf("ropa=%+v", ropa)
	}
}

func TestImportHTMLRestoresExportedPage(t *testing.T) {
	ctx := context.Background()
	s := NewSession(storage.NewFileStore(filepath.Join(t.TempDir(), "catalog.json")), nil)

	src := catalog.Reconcile(internal.Catalog{
		Config:     internal.Config{BusinessName: "Luna"},
		Categories: []internal.Category{{ID: "velas", Name: "Velas", Icon: "🕯️"}},
		Products: map[string][]internal.Product{
			"velas": {{ID: "vela-lavanda", Name: "Vela lavanda", Price: "18000", Features: []string{}}},
		},
	})
	page, err := render.Project(src, src.Config)
	if err != nil {
		t.Fatal(err)
	}

	report, err := s.ImportHTML(ctx, page, 0.85)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Restored || report.Added != 1 {
		t.Fatalf("report=%+v", report)
	}
	turn, err := s.Current(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if turn.Catalog.Config.BusinessName != "Luna" || len(turn.Catalog.Categories) != 1 {
		t.Fatalf("catalog=%+v", turn.Catalog)
	}
}

func TestImportHTMLFallsBackToTables(t *testing.T) {
	ctx := context.Background()
	s := NewSession(storage.NewFileStore(filepath.Join(t.TempDir(), "catalog.json")), nil)

	html := `<table><tr><th>Producto</th><th>Precio</th></tr><tr><td>Jabón de avena</td><td>12.500</td></tr></table>`
	report, err := s.ImportHTML(ctx, []byte(html), 0.85)
	if err != nil {
		t.Fatal(err)
	}
	if report.Restored || report.Added != 1 {
		t.Fatalf("report=%+v", report)
	}
}

func TestImportJSONReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewSession(storage.NewFileStore(filepath.Join(t.TempDir(), "catalog.json")), nil)

	tree := `{"categories":["Velas"],"products":{"Velas":[{"name":"Vela de soya","price":"22000"}]}}`
	turn, err := s.ImportJSON(ctx, strings.NewReader(tree))
	if err != nil {
		t.Fatal(err)
	}
	if len(turn.Catalog.Categories) != 1 || turn.Catalog.ProductCount() != 1 {
		t.Fatalf("catalog=%+v", turn.Catalog)
	}
}
