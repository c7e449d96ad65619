package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/skuboard/skuboard/internal/platform/httpx"
	"github.com/skuboard/skuboard/internal/pricing"
	"github.com/skuboard/skuboard/internal/snapshot"
)

// ProductList is the list response.
type ProductList struct {
	Products    []ProductSummary `json:"products"`
	Badges      []BadgeOption    `json:"badges"`
	GeneratedAt string           `json:"generated_at"`
}

// ProductView is the detail response.
type ProductView struct {
	Product     ProductDetail `json:"product"`
	Metrics     DetailMetrics `json:"metrics"`
	GeneratedAt string        `json:"generated_at"`
}

// SKUList is the SKU listing response.
type SKUList struct {
	ProductCode string `json:"product_code"`
	SKUs        []SKU  `json:"skus"`
	GeneratedAt string `json:"generated_at"`
}

// SettingsView is the resolved settings response.
type SettingsView struct {
	pricing.Settings
	GeneratedAt string `json:"generated_at"`
}

// SimulatorDefaults pre-fills the simulator form for a product.
type SimulatorDefaults struct {
	ProductCode  string  `json:"product_code"`
	SKUCode      string  `json:"sku_code"`
	Price        float64 `json:"price_in_tax"`
	Cost         float64 `json:"cost_ex_tax"`
	Point        float64 `json:"point_pct"`
	Coupon       float64 `json:"coupon_in_tax"`
	ShippingType string  `json:"shipping_type"`
}

// Simulation is a simulator run along with the settings it used.
type Simulation struct {
	Result      pricing.SimulationResult `json:"result"`
	GeneratedAt string                   `json:"generated_at"`
}

// Service answers catalog queries from the current snapshot.
type Service struct {
	provider snapshot.Provider
	logger   *slog.Logger
}

// NewService wires a snapshot provider.
func NewService(provider snapshot.Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{provider: provider, logger: logger}
}

func (s *Service) load(ctx context.Context) (*snapshot.Snapshot, error) {
	return s.provider.Snapshot(ctx, snapshot.ModeDefault)
}

// List returns the filtered and sorted product list. Badge options cover the
// whole catalog, not just the filtered rows.
func (s *Service) List(ctx context.Context, q ListQuery) (ProductList, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return ProductList{}, err
	}
	all := ProjectSummaries(snap)
	return ProductList{
		Products:    Apply(all, q),
		Badges:      DistinctBadges(all),
		GeneratedAt: snap.GeneratedAt,
	}, nil
}

// Detail returns every column of one product plus its derived metrics.
func (s *Service) Detail(ctx context.Context, productCode string) (ProductView, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return ProductView{}, err
	}
	row, ok := snap.FindProduct(productCode)
	if !ok {
		return ProductView{}, fmt.Errorf("product %s: %w", productCode, httpx.ErrNotFound)
	}
	detail := ProjectDetail(row)
	return ProductView{
		Product:     detail,
		Metrics:     DeriveMetrics(detail),
		GeneratedAt: snap.GeneratedAt,
	}, nil
}

// SKUs lists the product's SKUs in snapshot order.
func (s *Service) SKUs(ctx context.Context, productCode string) (SKUList, error) {
	if strings.TrimSpace(productCode) == "" {
		return SKUList{}, fmt.Errorf("product_code is required: %w", httpx.ErrBadRequest)
	}
	snap, err := s.load(ctx)
	if err != nil {
		return SKUList{}, err
	}
	if _, ok := snap.FindProduct(productCode); !ok {
		return SKUList{}, fmt.Errorf("product %s: %w", productCode, httpx.ErrNotFound)
	}
	return SKUList{ProductCode: productCode, SKUs: projectSKUs(snap, productCode), GeneratedAt: snap.GeneratedAt}, nil
}

func projectSKUs(snap *snapshot.Snapshot, productCode string) []SKU {
	rows := snap.ListSKUs(productCode)
	skus := make([]SKU, len(rows))
	for i, row := range rows {
		skus[i] = ProjectSKU(row)
	}
	return skus
}

// Settings resolves the pricing settings from the snapshot.
func (s *Service) Settings(ctx context.Context) (SettingsView, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return SettingsView{}, err
	}
	return SettingsView{Settings: pricing.Resolve(snap.Settings, s.logger), GeneratedAt: snap.GeneratedAt}, nil
}

// Simulate runs the profit simulator against the snapshot's settings. On a
// validation error the zero result is returned alongside the error.
func (s *Service) Simulate(ctx context.Context, in pricing.SimulationInput) (Simulation, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return Simulation{}, err
	}
	result, err := pricing.Simulate(in, pricing.Resolve(snap.Settings, s.logger))
	return Simulation{Result: result, GeneratedAt: snap.GeneratedAt}, err
}

// SimulatorDefaults seeds the simulator from the representative SKU, falling
// back to the first SKU.
func (s *Service) SimulatorDefaults(ctx context.Context, productCode string) (SimulatorDefaults, error) {
	if strings.TrimSpace(productCode) == "" {
		return SimulatorDefaults{}, fmt.Errorf("product_code is required: %w", httpx.ErrBadRequest)
	}
	snap, err := s.load(ctx)
	if err != nil {
		return SimulatorDefaults{}, err
	}
	row, ok := snap.FindProduct(productCode)
	if !ok {
		return SimulatorDefaults{}, fmt.Errorf("product %s: %w", productCode, httpx.ErrNotFound)
	}
	settings := pricing.Resolve(snap.Settings, s.logger)
	representative := snapshot.AsString(row["representative_sku"])
	return buildDefaults(productCode, representative, projectSKUs(snap, productCode), settings), nil
}

func buildDefaults(productCode, representative string, skus []SKU, settings pricing.Settings) SimulatorDefaults {
	out := SimulatorDefaults{
		ProductCode:  productCode,
		Point:        roundTo(settings.DefaultPointRate*100, 1),
		ShippingType: pricing.DefaultShippingType,
	}
	var base *SKU
	for i := range skus {
		if skus[i].SKUCode == representative {
			base = &skus[i]
			break
		}
	}
	if base == nil && len(skus) > 0 {
		base = &skus[0]
	}
	if base != nil {
		out.SKUCode = base.SKUCode
		out.Price = roundTo(base.PriceInTax, 0)
		out.Cost = roundTo(base.CostExTax, 0)
	}
	for _, sku := range skus {
		if strings.TrimSpace(sku.ShippingType) != "" {
			out.ShippingType = sku.ShippingType
			break
		}
	}
	return out
}

// roundTo rounds half up at the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Floor(v*scale+0.5) / scale
}
