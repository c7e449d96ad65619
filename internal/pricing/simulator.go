package pricing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/skuboard/skuboard/internal/platform/httpx"
)

// SimulationInput carries the raw simulator form values.
type SimulationInput struct {
	Price        string `json:"price_in_tax"`
	ShippingType string `json:"shipping_type"`
	Cost         string `json:"cost_ex_tax"`
	Point        string `json:"point_pct"`
	Coupon       string `json:"coupon_in_tax"`
}

// SimulationResult is the simulated unit economics. Margin is a fraction;
// MarginPct is the same value in percent.
type SimulationResult struct {
	Profit            float64 `json:"profit"`
	Margin            float64 `json:"margin"`
	MarginPct         float64 `json:"margin_pct"`
	NetInTax          float64 `json:"net_in_tax"`
	ShippingCostInTax float64 `json:"shipping_cost_in_tax"`
}

// simulationBounds holds the parsed numbers. Field order is the order in which
// range violations are reported.
type simulationBounds struct {
	Price  float64 `validate:"gte=0"`
	Cost   float64 `validate:"gte=0"`
	Coupon float64 `validate:"gte=0"`
	Point  float64 `validate:"gte=0,lte=100"`
}

var boundMessages = map[string]string{
	"Price":  "販売価格は0以上にしてください",
	"Cost":   "仕入れ値は0以上にしてください",
	"Coupon": "クーポンは0以上にしてください",
	"Point":  "ポイント倍率は0〜100%の範囲にしてください",
}

var boundsValidator = validator.New()

// Simulate computes profit and margin for one unit at the given price. On
// invalid input it returns a zero result and an error wrapping
// httpx.ErrValidation with the first violated rule.
func Simulate(in SimulationInput, settings Settings) (SimulationResult, error) {
	bounds, err := parseInput(in)
	if err != nil {
		return SimulationResult{}, err
	}
	if err := checkBounds(bounds); err != nil {
		return SimulationResult{}, err
	}

	pointRate := bounds.Point / 100
	shippingCost := settings.ShippingCostFor(in.ShippingType)
	netInTax := bounds.Price*(1-settings.FeeRate-pointRate) - bounds.Coupon
	netExTax := (netInTax - shippingCost) / (1 + settings.TaxRate)
	profit := netExTax - bounds.Cost

	var margin float64
	if bounds.Price > 0 {
		margin = profit / (bounds.Price / (1 + settings.TaxRate))
	}
	return SimulationResult{
		Profit:            profit,
		Margin:            margin,
		MarginPct:         margin * 100,
		NetInTax:          netInTax,
		ShippingCostInTax: shippingCost,
	}, nil
}

func parseInput(in SimulationInput) (simulationBounds, error) {
	var b simulationBounds
	fields := []struct {
		raw     string
		dst     *float64
		message string
	}{
		{in.Price, &b.Price, "販売価格が未入力/不正です"},
		{in.Cost, &b.Cost, "仕入れ値が未入力/不正です"},
		{in.Point, &b.Point, "ポイント倍率が未入力/不正です"},
		{in.Coupon, &b.Coupon, "クーポンが未入力/不正です"},
	}
	for _, f := range fields {
		v, ok := parseFinite(f.raw)
		if !ok {
			return simulationBounds{}, validationError(f.message)
		}
		*f.dst = v
	}
	return b, nil
}

func checkBounds(b simulationBounds) error {
	err := boundsValidator.Struct(b)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		if msg, ok := boundMessages[fieldErrs[0].StructField()]; ok {
			return validationError(msg)
		}
	}
	return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
}

func parseFinite(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ValidationError is a simulator input error. Message is shown to the user
// as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return httpx.ErrValidation }

func validationError(msg string) error {
	return &ValidationError{Message: msg}
}
