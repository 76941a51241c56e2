package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"vitrina/internal/catalog"
	"vitrina/internal/exporter"
	"vitrina/internal/observability"
	"vitrina/internal/pipeline"
	"vitrina/internal/storage"
)

type Server struct {
	router    *chi.Mux
	session   *pipeline.Session
	exporter  *exporter.Exporter
	threshold float64
	logger    *zap.Logger
	// renders holds projected documents keyed by "<version>/<format>".
	renders *lru.Cache[string, []byte]
}

const renderCacheSize = 32

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Errors  any    `json:"errors,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func NewServer(session *pipeline.Session, ex *exporter.Exporter, threshold float64, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	renders, _ := lru.New[string, []byte](renderCacheSize)
	s := &Server{
		router:    chi.NewRouter(),
		renders:   renders,
		session:   session,
		exporter:  ex,
		threshold: threshold,
		logger:    logger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(observability.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/preview", s.handlePreview)
	s.router.Get("/export/{file}", s.handleExport)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleGetCatalog)
		r.Put("/catalog", s.handlePutCatalog)
		r.Put("/config", s.handleUpdateConfig)
		r.Put("/selection", s.handleSelect)
		r.Post("/import", s.handleImport)
		r.Post("/exports", s.handleWriteExports)

		r.Get("/products", s.handleListProducts)
		r.Post("/products", s.handleAddProduct)
		r.Put("/products/{id}", s.handleUpdateProduct)
		r.Delete("/products/{id}", s.handleDeleteProduct)
		r.Post("/products/{id}/move", s.handleMoveProduct)

		r.Post("/categories", s.handleAddCategory)
		r.Put("/categories/{id}", s.handleUpdateCategory)
		r.Delete("/categories/{id}", s.handleDeleteCategory)
		r.Post("/categories/{id}/move", s.handleMoveCategory)
	})
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func respondJSON(w http.ResponseWriter, status int, payload response) {
	blob, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(blob)
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, response{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, response{Success: false, Message: message})
}

// respondFailure maps domain errors to status codes. Anything unknown is
// logged and answered with 500.
func (s *Server) respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	var verrs catalog.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		respondJSON(w, http.StatusUnprocessableEntity, response{Message: "validation failed", Errors: verrs})
	case errors.Is(err, storage.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrCategoryNotFound), errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, pipeline.ErrUnreadable):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

const maxBodyBytes = 10 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}
