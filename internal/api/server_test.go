package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"vitrina/internal/catalog"
	"vitrina/internal/config"
	"vitrina/internal/exporter"
	"vitrina/internal/pipeline"
	"vitrina/internal/render"
	"vitrina/internal/storage"
)

type envelope struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Errors  []catalog.FieldError `json:"errors"`
	Data    json.RawMessage      `json:"data"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "vitrina.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ex := exporter.New(t.TempDir(), render.NewPriceFormatter("es-CO", "COP", "$"), db)
	return NewServer(pipeline.NewSession(db, nil), ex, 0.85, nil)
}

func do(t *testing.T, s *Server, method, target string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		blob, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(blob)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && strings.HasPrefix(target, "/api/") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, target, rec.Body.String(), err)
		}
	}
	return rec, env
}

func dataField(t *testing.T, env envelope, key string) string {
	t.Helper()
	var data map[string]string
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("data=%s: %v", env.Data, err)
	}
	return data[key]
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec, _ := do(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestCategoryAndProductLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, http.MethodPost, "/api/categories", map[string]string{"name": "Velas", "icon": "🕯️"})
	if rec.Code != http.StatusCreated || !env.Success {
		t.Fatalf("add category status=%d body=%s", rec.Code, rec.Body.String())
	}
	catID := dataField(t, env, "id")
	if catID != "velas" {
		t.Fatalf("category id=%q", catID)
	}

	rec, env = do(t, s, http.MethodPost, "/api/products", map[string]any{
		"categoryId": catID,
		"name":       "Vela lavanda",
		"price":      "18000",
		"features":   []string{"Cera de soya"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add product status=%d body=%s", rec.Code, rec.Body.String())
	}
	productID := dataField(t, env, "id")
	if productID == "" {
		t.Fatal("missing product id")
	}
	if _, env = do(t, s, http.MethodPost, "/api/products", map[string]any{"categoryId": catID, "name": "Vela canela"}); !env.Success {
		t.Fatalf("second product: %+v", env)
	}

	rec, env = do(t, s, http.MethodPost, "/api/products/"+productID+"/move", map[string]int{"delta": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("move status=%d body=%s", rec.Code, rec.Body.String())
	}

	_, env = do(t, s, http.MethodGet, "/api/products?category="+catID, nil)
	var listed []struct {
		CategoryID string `json:"categoryId"`
		ID         string `json:"id"`
		Name       string `json:"name"`
	}
	if err := json.Unmarshal(env.Data, &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 2 || listed[1].ID != productID || listed[1].CategoryID != catID {
		t.Fatalf("listed=%+v", listed)
	}

	rec, _ = do(t, s, http.MethodPut, "/api/products/"+productID, map[string]any{"name": "Vela lavanda XL", "price": "21000"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec, _ = do(t, s, http.MethodDelete, "/api/products/"+productID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rec.Code)
	}
	rec, _ = do(t, s, http.MethodDelete, "/api/products/"+productID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rec.Code)
	}

	rec, _ = do(t, s, http.MethodGet, "/api/products?category=nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown category status=%d", rec.Code)
	}
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, http.MethodPost, "/api/products", map[string]any{"categoryId": "productos", "name": " ", "image": "ftp://x"})
	if rec.Code != http.StatusUnprocessableEntity || env.Success {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	fields := map[string]bool{}
	for _, fe := range env.Errors {
		fields[fe.Field] = true
	}
	if !fields["name"] || !fields["image"] {
		t.Fatalf("errors=%+v", env.Errors)
	}

	rec, _ = do(t, s, http.MethodPut, "/api/config", map[string]string{"businessName": "Luna", "email": "no-es-correo"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("config status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec, _ = do(t, s, http.MethodPost, "/api/categories", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad body status=%d", rec.Code)
	}
}

func TestPutCatalogConflict(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, http.MethodGet, "/api/catalog", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var payload struct {
		Catalog json.RawMessage `json:"catalog"`
		Version string          `json:"version"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Version != "" {
		t.Fatalf("version=%q", payload.Version)
	}

	body := map[string]any{"catalog": payload.Catalog, "baseVersion": payload.Version}
	rec, env = do(t, s, http.MethodPut, "/api/catalog", body)
	if rec.Code != http.StatusOK || dataField(t, env, "version") != "1" {
		t.Fatalf("first put status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec, env = do(t, s, http.MethodPut, "/api/catalog", body)
	if rec.Code != http.StatusConflict || env.Success {
		t.Fatalf("stale put status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestImportText(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, http.MethodPost, "/api/import?kind=text", "Velas:\nVela lavanda .... $18.000\n")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var report pipeline.ImportReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatal(err)
	}
	if report.Added != 1 || report.CategoriesCreated != 1 {
		t.Fatalf("report=%+v", report)
	}

	rec, _ = do(t, s, http.MethodPost, "/api/import?kind=pdf", "not a pdf")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad pdf status=%d", rec.Code)
	}
	rec, _ = do(t, s, http.MethodPost, "/api/import?kind=doc", "x")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind status=%d", rec.Code)
	}
}

func TestExportAndPreview(t *testing.T) {
	s := newTestServer(t)
	if rec, _ := do(t, s, http.MethodPut, "/api/config", map[string]string{"businessName": "Luna & Sol"}); rec.Code != http.StatusOK {
		t.Fatalf("config status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec, _ := do(t, s, http.MethodGet, "/export/catalog.json", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("status=%d type=%q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "catalogo-") || !strings.HasSuffix(cd, `.json"`) {
		t.Fatalf("disposition=%q", cd)
	}
	if !strings.Contains(rec.Body.String(), `"businessName": "Luna & Sol"`) {
		t.Fatalf("body=%s", rec.Body.String())
	}

	rec, _ = do(t, s, http.MethodGet, "/preview", nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("preview status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Luna &amp; Sol") {
		t.Fatal("preview misses business name")
	}
	if s.renders.Len() != 2 {
		t.Fatalf("cached renders=%d", s.renders.Len())
	}
	if again, _ := do(t, s, http.MethodGet, "/preview", nil); again.Body.String() != rec.Body.String() {
		t.Fatal("cached preview differs")
	}

	rec, _ = do(t, s, http.MethodGet, "/export/catalog.doc", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown export status=%d", rec.Code)
	}

	rec, env := do(t, s, http.MethodPost, "/api/exports?format=json", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("write exports status=%d body=%s", rec.Code, rec.Body.String())
	}
	var res exporter.Result
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Files) != 1 || res.Files["json"] == "" {
		t.Fatalf("result=%+v", res)
	}
}

func TestRemoteStoreAgainstServer(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	remote := storage.NewRemoteStore(config.Config{RemoteURL: srv.URL, RemoteRateLimitRPS: 1000, RemoteTimeoutMs: 5000})
	ctx := context.Background()

	snap, err := remote.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	c := catalog.Reconcile(snap.Tree)
	c.Config.BusinessName = "Remota"
	version, err := remote.Save(ctx, c, snap.Version)
	if err != nil {
		t.Fatal(err)
	}

	again, err := remote.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again.Version != version || catalog.Reconcile(again.Tree).Config.BusinessName != "Remota" {
		t.Fatalf("snapshot=%+v version=%q", again, version)
	}
	if _, err := remote.Save(ctx, c, snap.Version); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
