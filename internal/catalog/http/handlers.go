package cataloghttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/skuboard/skuboard/internal/catalog"
	"github.com/skuboard/skuboard/internal/platform/httpx"
	"github.com/skuboard/skuboard/internal/pricing"
	"github.com/skuboard/skuboard/internal/snapshot"
)

// CatalogService defines the catalog queries used by the handler.
type CatalogService interface {
	List(ctx context.Context, q catalog.ListQuery) (catalog.ProductList, error)
	Detail(ctx context.Context, productCode string) (catalog.ProductView, error)
	SKUs(ctx context.Context, productCode string) (catalog.SKUList, error)
	Settings(ctx context.Context) (catalog.SettingsView, error)
	Simulate(ctx context.Context, in pricing.SimulationInput) (catalog.Simulation, error)
	SimulatorDefaults(ctx context.Context, productCode string) (catalog.SimulatorDefaults, error)
}

// Handler serves the product, SKU, settings and simulator endpoints.
type Handler struct {
	logger  *slog.Logger
	service CatalogService
}

// NewHandler constructs the catalog HTTP handler.
func NewHandler(logger *slog.Logger, service CatalogService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if code := query.Get("product_code"); code != "" {
		view, err := h.service.Detail(r.Context(), code)
		if err != nil {
			h.respondError(w, "product detail", err)
			return
		}
		httpx.JSON(w, http.StatusOK, view)
		return
	}

	list, err := h.service.List(r.Context(), parseListQuery(query))
	if err != nil {
		h.respondError(w, "product list", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleSKUs(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.SKUs(r.Context(), r.URL.Query().Get("product_code"))
	if err != nil {
		h.respondError(w, "sku list", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Settings(r.Context())
	if err != nil {
		h.respondError(w, "settings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

// simulateRequest accepts numbers or strings for every field.
type simulateRequest struct {
	Price        any `json:"price_in_tax"`
	ShippingType any `json:"shipping_type"`
	Cost         any `json:"cost_ex_tax"`
	Point        any `json:"point_pct"`
	Coupon       any `json:"coupon_in_tax"`
}

type simulateResponse struct {
	Result      pricing.SimulationResult `json:"result"`
	Error       *string                  `json:"error"`
	GeneratedAt string                   `json:"generated_at,omitempty"`
}

func (h *Handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "request body must be a JSON object")
		return
	}
	sim, err := h.service.Simulate(r.Context(), pricing.SimulationInput{
		Price:        snapshot.AsString(req.Price),
		ShippingType: snapshot.AsString(req.ShippingType),
		Cost:         snapshot.AsString(req.Cost),
		Point:        snapshot.AsString(req.Point),
		Coupon:       snapshot.AsString(req.Coupon),
	})
	var verr *pricing.ValidationError
	if errors.As(err, &verr) {
		msg := verr.Message
		httpx.JSON(w, http.StatusUnprocessableEntity, simulateResponse{Result: sim.Result, Error: &msg, GeneratedAt: sim.GeneratedAt})
		return
	}
	if err != nil {
		h.respondError(w, "simulate", err)
		return
	}
	httpx.JSON(w, http.StatusOK, simulateResponse{Result: sim.Result, GeneratedAt: sim.GeneratedAt})
}

func (h *Handler) handleSimulatorDefaults(w http.ResponseWriter, r *http.Request) {
	defaults, err := h.service.SimulatorDefaults(r.Context(), r.URL.Query().Get("product_code"))
	if err != nil {
		h.respondError(w, "simulator defaults", err)
		return
	}
	httpx.JSON(w, http.StatusOK, defaults)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	status := httpx.StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Int("status", status), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func parseListQuery(v url.Values) catalog.ListQuery {
	q := catalog.ListQuery{
		Search: v.Get("q"),
		Badges: nonBlank(v["badge"]),
		Stock:  catalog.Range{Min: v.Get("stock_min"), Max: v.Get("stock_max")},
		Sales:  catalog.Range{Min: v.Get("sales_min"), Max: v.Get("sales_max")},
		Access: catalog.Range{Min: v.Get("access_min"), Max: v.Get("access_max")},
		CV:     catalog.Range{Min: v.Get("cv_min"), Max: v.Get("cv_max")},
		Sort: catalog.SortState{
			Field:     catalog.ParseSortField(v.Get("sort")),
			Direction: catalog.ParseSortDirection(v.Get("dir")),
		},
	}
	for _, raw := range v["rating"] {
		for _, part := range strings.Split(raw, ",") {
			if r := snapshot.ParseRating(part); r != nil {
				q.Ratings = append(q.Ratings, *r)
			}
		}
	}
	return q
}

func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
