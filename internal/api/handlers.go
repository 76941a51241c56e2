package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"vitrina/internal"
	"vitrina/internal/catalog"
	"vitrina/internal/exporter"
	"vitrina/internal/importer"
)

type catalogBody struct {
	Catalog     json.RawMessage `json:"catalog"`
	BaseVersion string          `json:"baseVersion"`
}

type productBody struct {
	CategoryID string `json:"categoryId"`
	catalog.ProductInput
}

type moveBody struct {
	Delta int `json:"delta"`
}

type productView struct {
	CategoryID string `json:"categoryId"`
	internal.Product
}

var contentTypes = map[string]string{
	exporter.FormatHTML: "text/html; charset=utf-8",
	exporter.FormatJSON: "application/json",
	exporter.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	turn, err := s.session.Current(r.Context())
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]any{
		"catalog": catalog.Tree(turn.Catalog),
		"version": turn.Version,
	})
}

func (s *Server) handlePutCatalog(w http.ResponseWriter, r *http.Request) {
	var body catalogBody
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Catalog) == 0 {
		respondError(w, http.StatusBadRequest, "catalog is required")
		return
	}
	tree, err := catalog.DecodeTreeBytes(body.Catalog)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid catalog: "+err.Error())
		return
	}
	turn, err := s.session.Replace(r.Context(), tree, body.BaseVersion)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"version": turn.Version})
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg internal.Config
	if err := decodeBody(w, r, &cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mutate(w, r, "config:update", http.StatusOK, func(ed *catalog.Editor) (string, error) {
		return "", ed.UpdateConfig(cfg)
	})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CategoryID string `json:"categoryId"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mutate(w, r, "category:select", http.StatusOK, func(ed *catalog.Editor) (string, error) {
		return body.CategoryID, ed.Select(body.CategoryID)
	})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	turn, err := s.session.Current(r.Context())
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	c := turn.Catalog
	filter := strings.TrimSpace(r.URL.Query().Get("category"))
	if filter != "" {
		if _, ok := c.CategoryByID(filter); !ok {
			s.respondFailure(w, r, fmt.Errorf("%w: %s", catalog.ErrCategoryNotFound, filter))
			return
		}
	}

	out := []productView{}
	for _, cat := range c.Categories {
		if filter != "" && cat.ID != filter {
			continue
		}
		for _, p := range c.Products[cat.ID] {
			out = append(out, productView{CategoryID: cat.ID, Product: p})
		}
	}
	respondData(w, http.StatusOK, out)
}

func (s *Server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	var body productBody
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mutate(w, r, "product:add", http.StatusCreated, func(ed *catalog.Editor) (string, error) {
		return ed.AddProduct(body.CategoryID, body.ProductInput)
	})
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body productBody
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mutate(w, r, "product:update", http.StatusOK, func(ed *catalog.Editor) (string, error) {
		return id, ed.UpdateProduct(id, body.CategoryID, body.ProductInput)
	})
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mutate(w, r, "product:delete", http.StatusOK, func(ed *catalog.Editor) (string, error) {
		return id, ed.DeleteProduct(id)
	})
}

func (s *Server) handleMoveProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body moveBody
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mutate(w, r, "product:move", http.StatusOK, func(ed *catalog.Editor) (string, error) {
		return id, ed.MoveProduct(id, body.Delta)
	})
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var in catalog.CategoryInput
	if err := decodeBody(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mutate(w, r, "category:add", http.StatusCreated, func(ed *catalog.Editor) (string, error) {
		return ed.AddCategory(in)
	})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in catalog.CategoryInput
	if err := decodeBody(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mutate(w, r, "category:update", http.StatusOK, func(ed *catalog.Editor) (string, error) {
		return id, ed.UpdateCategory(id, in)
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mutate(w, r, "category:delete", http.StatusOK, func(ed *catalog.Editor) (string, error) {
		return id, ed.DeleteCategory(id)
	})
}

func (s *Server) handleMoveCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body moveBody
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.mutate(w, r, "category:move", http.StatusOK, func(ed *catalog.Editor) (string, error) {
		return id, ed.MoveCategory(id, body.Delta)
	})
}

// mutate runs one editor operation as a stored turn and answers with the id
// the operation touched and the new version.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, op string, status int, fn func(ed *catalog.Editor) (string, error)) {
	var id string
	turn, err := s.session.Update(r.Context(), op, func(ed *catalog.Editor) error {
		var err error
		id, err = fn(ed)
		return err
	})
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	data := map[string]string{"version": turn.Version}
	if id != "" {
		data["id"] = id
	}
	respondData(w, status, data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := strings.ToLower(strings.TrimSpace(q.Get("kind")))
	if kind == "" {
		if guessed, ok := importer.KindFromFilename(q.Get("filename")); ok {
			kind = string(guessed)
		} else if strings.HasSuffix(strings.ToLower(q.Get("filename")), ".json") {
			kind = "json"
		}
	}

	content, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	switch importer.Kind(kind) {
	case "json":
		turn, err := s.session.ImportJSON(ctx, bytes.NewReader(content))
		if err != nil {
			s.respondFailure(w, r, err)
			return
		}
		respondData(w, http.StatusOK, map[string]any{"kind": kind, "restored": true, "version": turn.Version})
	case importer.KindHTML:
		report, err := s.session.ImportHTML(ctx, content, s.threshold)
		if err != nil {
			s.respondFailure(w, r, err)
			return
		}
		respondData(w, http.StatusOK, report)
	case importer.KindText, importer.KindPDF, importer.KindXLSX:
		report, err := s.session.ImportDocument(ctx, importer.Kind(kind), content, s.threshold)
		if err != nil {
			s.respondFailure(w, r, err)
			return
		}
		respondData(w, http.StatusOK, report)
	default:
		respondError(w, http.StatusBadRequest, "unsupported import kind: "+kind)
	}
}

func (s *Server) handleWriteExports(w http.ResponseWriter, r *http.Request) {
	formats := r.URL.Query()["format"]
	for _, format := range formats {
		if !slices.Contains(exporter.Formats, format) {
			respondError(w, http.StatusBadRequest, "unsupported export format: "+format)
			return
		}
	}
	turn, err := s.session.Current(r.Context())
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	res, err := s.exporter.Write(r.Context(), turn.Catalog, exporter.Stamp(time.Now()), formats...)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, res)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	s.serveDocument(w, r, exporter.FormatHTML, false)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, ok := strings.CutPrefix(chi.URLParam(r, "file"), "catalog.")
	if !ok || !slices.Contains(exporter.Formats, format) {
		respondError(w, http.StatusNotFound, "unknown export")
		return
	}
	s.serveDocument(w, r, format, true)
}

func (s *Server) serveDocument(w http.ResponseWriter, r *http.Request, format string, download bool) {
	turn, err := s.session.Current(r.Context())
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	blob, err := s.render(turn.Catalog, turn.Version, format)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	if download {
		name := exporter.Filename(exporter.Stamp(time.Now()), format)
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(blob)
}

// render reuses the document projected for a stored version. Unsaved
// catalogs have no version and are rendered every time.
func (s *Server) render(c internal.Catalog, version, format string) ([]byte, error) {
	if version == "" {
		return s.exporter.Render(c, format)
	}
	key := version + "/" + format
	if blob, ok := s.renders.Get(key); ok {
		return blob, nil
	}
	blob, err := s.exporter.Render(c, format)
	if err != nil {
		return nil, err
	}
	s.renders.Add(key, blob)
	return blob, nil
}
