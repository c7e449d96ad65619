package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuboard/skuboard/internal/platform/httpx"
	"github.com/skuboard/skuboard/internal/pricing"
	"github.com/skuboard/skuboard/internal/snapshot"
)

type stubProvider struct {
	snap  *snapshot.Snapshot
	err   error
	modes []snapshot.Mode
}

func (p *stubProvider) Snapshot(_ context.Context, mode snapshot.Mode) (*snapshot.Snapshot, error) {
	p.modes = append(p.modes, mode)
	return p.snap, p.err
}

func serviceSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		GeneratedAt: "2025-06-01T09:00:00+09:00",
		Products: []snapshot.Row{
			{"product_code": "P-1", "product_name": "Tea", "representative_sku": "S-2", "rating": "B", "stock_sum": 10, "badges": `["人気商品"]`},
			{"product_code": "P-2", "product_name": "Mug", "stock_sum": 3, "badges": `["低在庫"]`},
			{"product_code": "P-3", "product_name": "Spoon"},
		},
		SKUs: []snapshot.Row{
			{"product_code": "P-1", "sku_code": "S-1", "price_in_tax": "1,980", "cost_ex_tax": 500.4},
			{"product_code": "P-1", "sku_code": "S-2", "price_in_tax": 2980.5, "cost_ex_tax": "700.5", "shipping_type": ""},
			{"product_code": "P-1", "sku_code": "S-3", "shipping_type": "mail"},
			{"product_code": "P-2", "sku_code": "M-1", "price_in_tax": 1200, "cost_ex_tax": 400},
		},
		Notes: []snapshot.Row{
			{"product_code": "P-2", "rating": "S"},
		},
		Settings: []snapshot.Row{
			{"key": "default_point_rate", "value": "0.015"},
			{"shipping_type": "mail", "shipping_cost_in_tax": 370},
		},
	}
}

func TestServiceList(t *testing.T) {
	svc := NewService(&stubProvider{snap: serviceSnapshot()}, nil)

	list, err := svc.List(context.Background(), ListQuery{Ratings: []snapshot.Rating{snapshot.RatingS}})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01T09:00:00+09:00", list.GeneratedAt)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "P-2", list.Products[0].ProductCode)
	assert.Len(t, list.Badges, 2, "badge options cover the unfiltered catalog")
}

func TestServiceDetail(t *testing.T) {
	svc := NewService(&stubProvider{snap: serviceSnapshot()}, nil)

	view, err := svc.Detail(context.Background(), "P-1")
	require.NoError(t, err)
	assert.Equal(t, "Tea", view.Product.String("product_name"))
	assert.Equal(t, 10.0, view.Metrics.StockSum)

	_, err = svc.Detail(context.Background(), "P-404")
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestServiceSKUs(t *testing.T) {
	svc := NewService(&stubProvider{snap: serviceSnapshot()}, nil)

	list, err := svc.SKUs(context.Background(), "P-1")
	require.NoError(t, err)
	require.Len(t, list.SKUs, 3)
	assert.Equal(t, "S-1", list.SKUs[0].SKUCode)
	assert.Equal(t, 1980.0, list.SKUs[0].PriceInTax)

	_, err = svc.SKUs(context.Background(), " ")
	assert.True(t, errors.Is(err, httpx.ErrBadRequest))

	_, err = svc.SKUs(context.Background(), "P-404")
	assert.True(t, errors.Is(err, httpx.ErrNotFound))

	list, err = svc.SKUs(context.Background(), "P-3")
	require.NoError(t, err)
	assert.Equal(t, []SKU{}, list.SKUs)
}

func TestServiceSettings(t *testing.T) {
	svc := NewService(&stubProvider{snap: serviceSnapshot()}, nil)

	view, err := svc.Settings(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.015, view.DefaultPointRate, 1e-12)
	assert.Equal(t, pricing.DefaultTaxRate, view.TaxRate)
	assert.Equal(t, []pricing.ShippingCost{{ShippingType: "mail", ShippingCostInTax: 370}}, view.ShippingCostsInTax)
}

func TestServiceSimulate(t *testing.T) {
	svc := NewService(&stubProvider{snap: serviceSnapshot()}, nil)

	sim, err := svc.Simulate(context.Background(), pricing.SimulationInput{
		Price: "1000", ShippingType: "mail", Cost: "300", Point: "1", Coupon: "0",
	})
	require.NoError(t, err)
	assert.Equal(t, 370.0, sim.Result.ShippingCostInTax)

	sim, err = svc.Simulate(context.Background(), pricing.SimulationInput{Price: "1000", Cost: "300", Point: "150", Coupon: "0"})
	assert.True(t, errors.Is(err, httpx.ErrValidation))
	assert.Equal(t, pricing.SimulationResult{}, sim.Result)
}

func TestServiceSimulatorDefaults(t *testing.T) {
	svc := NewService(&stubProvider{snap: serviceSnapshot()}, nil)

	got, err := svc.SimulatorDefaults(context.Background(), "P-1")
	require.NoError(t, err)
	assert.Equal(t, SimulatorDefaults{
		ProductCode:  "P-1",
		SKUCode:      "S-2",
		Price:        2981,
		Cost:         701,
		Point:        1.5,
		ShippingType: "mail",
	}, got)

	got, err = svc.SimulatorDefaults(context.Background(), "P-2")
	require.NoError(t, err)
	assert.Equal(t, "M-1", got.SKUCode, "falls back to the first SKU")
	assert.Equal(t, pricing.DefaultShippingType, got.ShippingType)

	got, err = svc.SimulatorDefaults(context.Background(), "P-3")
	require.NoError(t, err)
	assert.Empty(t, got.SKUCode)
	assert.Zero(t, got.Price)
}

func TestServicePropagatesFetchErrors(t *testing.T) {
	fetchErr := fmt.Errorf("%w: SNAPSHOT_URL returned 503", httpx.ErrFetch)
	provider := &stubProvider{err: fetchErr}
	svc := NewService(provider, nil)

	_, err := svc.List(context.Background(), ListQuery{})
	assert.True(t, errors.Is(err, httpx.ErrFetch))
	_, err = svc.Settings(context.Background())
	assert.True(t, errors.Is(err, httpx.ErrFetch))
	assert.Equal(t, []snapshot.Mode{snapshot.ModeDefault, snapshot.ModeDefault}, provider.modes)
}
