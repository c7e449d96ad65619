package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuboard/skuboard/internal/platform/httpx"
)

func TestSimulateWorkedExample(t *testing.T) {
	got, err := Simulate(SimulationInput{
		Price:        "2000",
		ShippingType: "default",
		Cost:         "1000",
		Point:        "1",
		Coupon:       "0",
	}, DefaultSettings())
	require.NoError(t, err)

	assert.InDelta(t, 1840, got.NetInTax, 1e-9)
	assert.InDelta(t, -54.5454545, got.Profit, 1e-6)
	assert.InDelta(t, -0.03, got.Margin, 1e-9)
	assert.InDelta(t, -3.0, got.MarginPct, 1e-7)
	assert.Equal(t, 800.0, got.ShippingCostInTax)
}

func TestSimulateZeroPriceHasZeroMargin(t *testing.T) {
	got, err := Simulate(SimulationInput{Price: "0", ShippingType: "default", Cost: "100", Point: "0", Coupon: "0"}, DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Margin)
	assert.Less(t, got.Profit, 0.0)
}

func TestSimulateUnknownShippingTypeCostsNothing(t *testing.T) {
	got, err := Simulate(SimulationInput{Price: "1100", ShippingType: "drone", Cost: "0", Point: "0", Coupon: "0"},
		Settings{TaxRate: 0.1, FeeRate: 0})
	require.NoError(t, err)
	assert.Zero(t, got.ShippingCostInTax)
	assert.InDelta(t, 1000, got.Profit, 1e-9)
	assert.InDelta(t, 1, got.Margin, 1e-12)
}

func TestSimulateValidation(t *testing.T) {
	valid := SimulationInput{Price: "1000", ShippingType: "default", Cost: "100", Point: "1", Coupon: "0"}
	cases := []struct {
		name   string
		mutate func(*SimulationInput)
		msg    string
	}{
		{"point out of range", func(in *SimulationInput) { in.Point = "150" }, "ポイント倍率は0〜100%の範囲にしてください"},
		{"negative point", func(in *SimulationInput) { in.Point = "-1" }, "ポイント倍率は0〜100%の範囲にしてください"},
		{"missing price", func(in *SimulationInput) { in.Price = "" }, "販売価格が未入力/不正です"},
		{"non-numeric cost", func(in *SimulationInput) { in.Cost = "abc" }, "仕入れ値が未入力/不正です"},
		{"infinite coupon", func(in *SimulationInput) { in.Coupon = "Inf" }, "クーポンが未入力/不正です"},
		{"negative price", func(in *SimulationInput) { in.Price = "-5" }, "販売価格は0以上にしてください"},
		{"negative coupon", func(in *SimulationInput) { in.Coupon = "-10" }, "クーポンは0以上にしてください"},
		{"parse errors come before range errors", func(in *SimulationInput) {
			in.Price = "-5"
			in.Coupon = "x"
		}, "クーポンが未入力/不正です"},
		{"range errors follow field order", func(in *SimulationInput) {
			in.Point = "101"
			in.Cost = "-1"
		}, "仕入れ値は0以上にしてください"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			got, err := Simulate(in, DefaultSettings())
			require.Error(t, err)
			assert.True(t, errors.Is(err, httpx.ErrValidation))
			assert.Equal(t, tc.msg, err.Error())
			assert.Equal(t, SimulationResult{}, got)
		})
	}
}

func TestSimulateNegativeProfitIsNotAnError(t *testing.T) {
	got, err := Simulate(SimulationInput{Price: "100", ShippingType: "default", Cost: "500", Point: "0", Coupon: "0"}, DefaultSettings())
	require.NoError(t, err)
	assert.Less(t, got.Profit, 0.0)
}
