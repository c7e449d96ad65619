// Package pricing resolves the pricing settings and runs the profit
// simulation.
package pricing

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/skuboard/skuboard/internal/snapshot"
)

// Default settings used when the settings sheet omits a key.
const (
	DefaultTaxRate          = 0.10
	DefaultFeeRate          = 0.07
	DefaultPointRate        = 0.01
	DefaultShippingType     = "default"
	DefaultShippingCostIncl = 800
)

// ShippingCost is the tax-inclusive cost of one shipping type.
type ShippingCost struct {
	ShippingType      string  `json:"shipping_type"`
	ShippingCostInTax float64 `json:"shipping_cost_in_tax"`
}

// Settings are the resolved pricing parameters.
type Settings struct {
	TaxRate            float64        `json:"tax_rate"`
	FeeRate            float64        `json:"fee_rate"`
	DefaultPointRate   float64        `json:"default_point_rate"`
	ShippingCostsInTax []ShippingCost `json:"shipping_costs_in_tax"`
	BadgeThresholds    map[string]any `json:"badge_thresholds"`
}

// ShippingCostFor returns the cost of the first matching shipping type, 0 when
// unknown.
func (s Settings) ShippingCostFor(shippingType string) float64 {
	for _, c := range s.ShippingCostsInTax {
		if c.ShippingType == shippingType {
			return c.ShippingCostInTax
		}
	}
	return 0
}

// DefaultSettings returns the settings used for an empty settings sheet.
func DefaultSettings() Settings {
	return Settings{
		TaxRate:          DefaultTaxRate,
		FeeRate:          DefaultFeeRate,
		DefaultPointRate: DefaultPointRate,
		ShippingCostsInTax: []ShippingCost{
			{ShippingType: DefaultShippingType, ShippingCostInTax: DefaultShippingCostIncl},
		},
		BadgeThresholds: map[string]any{},
	}
}

type entryKind int

const (
	entryScalar entryKind = iota
	entryShipping
)

// settingEntry is one classified settings row. A row can carry a key/value
// pair, a shipping rate, or both.
type settingEntry struct {
	kinds    []entryKind
	key      string
	value    any
	shipping ShippingCost
}

func classify(row snapshot.Row) settingEntry {
	var e settingEntry
	if key := strings.TrimSpace(snapshot.AsString(row["key"])); key != "" {
		e.kinds = append(e.kinds, entryScalar)
		e.key = key
		e.value = row["value"]
	}
	shippingType := strings.TrimSpace(snapshot.AsString(row["shipping_type"]))
	if cost, ok := row["shipping_cost_in_tax"]; ok && shippingType != "" {
		e.kinds = append(e.kinds, entryShipping)
		e.shipping = ShippingCost{ShippingType: shippingType, ShippingCostInTax: snapshot.AsNumber(cost)}
	}
	return e
}

func (e settingEntry) is(kind entryKind) bool {
	for _, k := range e.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Resolve builds Settings from the settings rows. A present scalar key wins
// even when its value is zero. An unparsable badge_thresholds_json yields an
// empty map.
func Resolve(rows []snapshot.Row, logger *slog.Logger) Settings {
	values := make(map[string]any)
	var shipping []ShippingCost
	for _, row := range rows {
		entry := classify(row)
		if entry.is(entryScalar) {
			values[entry.key] = entry.value
		}
		if entry.is(entryShipping) {
			shipping = append(shipping, entry.shipping)
		}
	}

	out := DefaultSettings()
	if v, ok := values["tax_rate"]; ok {
		out.TaxRate = snapshot.AsNumber(v)
	}
	if v, ok := values["fee_rate"]; ok {
		out.FeeRate = snapshot.AsNumber(v)
	}
	if v, ok := values["default_point_rate"]; ok {
		out.DefaultPointRate = snapshot.AsNumber(v)
	}
	if len(shipping) > 0 {
		out.ShippingCostsInTax = shipping
	}
	if v, ok := values["badge_thresholds_json"]; ok {
		out.BadgeThresholds = parseThresholds(snapshot.AsString(v), logger)
	}
	return out
}

func parseThresholds(raw string, logger *slog.Logger) map[string]any {
	thresholds := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return thresholds
	}
	if err := json.Unmarshal([]byte(raw), &thresholds); err != nil || thresholds == nil {
		if logger != nil {
			logger.Debug("badge thresholds ignored", slog.Any("error", err))
		}
		return map[string]any{}
	}
	return thresholds
}
