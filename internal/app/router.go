package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/skuboard/skuboard/internal/auth"
	cataloghttp "github.com/skuboard/skuboard/internal/catalog/http"
	noteshttp "github.com/skuboard/skuboard/internal/notes/http"
	"github.com/skuboard/skuboard/internal/observability"
	"github.com/skuboard/skuboard/internal/platform/httpx"
	"github.com/skuboard/skuboard/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Gate           *auth.Gate
	CatalogHandler *cataloghttp.Handler
	NotesHandler   *noteshttp.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with skuboard defaults. Everything
// under /api sits behind the allow-list gate.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		if params.Gate != nil {
			r.Use(params.Gate.Middleware)
		}
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountRoutes(r)
		}
		if params.NotesHandler != nil {
			params.NotesHandler.MountRoutes(r)
		}
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", r.URL.Path)
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
