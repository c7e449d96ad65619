package cataloghttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/skuboard/skuboard/internal/auth"
	"github.com/skuboard/skuboard/internal/platform/httpx"
)

// MountRoutes registers the catalog endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(60, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "")
		}),
	)

	r.Get("/products", h.handleProducts)
	r.Get("/skus", h.handleSKUs)
	r.Get("/settings", h.handleSettings)
	r.Get("/simulate/defaults", h.handleSimulatorDefaults)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/simulate", h.handleSimulate)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if email := auth.EmailFromContext(r.Context()); email != "" {
		return "user:" + email, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
