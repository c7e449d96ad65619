// Package catalog projects raw snapshot rows into the product list, product
// detail and SKU views, and filters/sorts the list.
package catalog

import (
	"github.com/skuboard/skuboard/internal/snapshot"
)

// ProductSummary is the lightweight list row.
type ProductSummary struct {
	ProductCode       string           `json:"product_code"`
	RepresentativeSKU string           `json:"representative_sku"`
	SKUCount          float64          `json:"sku_count"`
	Rating            *snapshot.Rating `json:"rating"`
	ProductName       string           `json:"product_name"`
	StockSum          float64          `json:"stock_sum"`
	SalesUnitsM       float64          `json:"sales_units_m"`
	AccessM           float64          `json:"access_m"`
	CVM               float64          `json:"cv_m"`
	Badges            []string         `json:"badges"`
}

// ProductDetail carries every column of the product row, normalised per
// productFieldKinds.
type ProductDetail map[string]any

// Number returns a numeric detail field, or 0 when absent.
func (d ProductDetail) Number(field string) float64 {
	return snapshot.AsNumber(d[field])
}

// String returns a text detail field.
func (d ProductDetail) String(field string) string {
	return snapshot.AsString(d[field])
}

// SKU is a normalised SKU row.
type SKU struct {
	ProductCode       string  `json:"product_code"`
	SKUCode           string  `json:"sku_code"`
	ShippingType      string  `json:"shipping_type"`
	CostExTax         float64 `json:"cost_ex_tax"`
	Stock             float64 `json:"stock"`
	Stock0Days        float64 `json:"stock0_days"`
	PriceInTax        float64 `json:"price_in_tax"`
	SalesUnitsM       float64 `json:"sales_units_m"`
	SalesUnitsLM      float64 `json:"sales_units_lm"`
	SalesAmountM      float64 `json:"sales_amount_m"`
	ProfitM           float64 `json:"profit_m"`
	SettingUnitProfit float64 `json:"setting_unit_profit"`
	SettingMargin     float64 `json:"setting_margin"`
	SettingMarginPct  float64 `json:"setting_margin_pct"`
	UpdatedAt         string  `json:"updated_at"`
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindArray
	kindRating
)

var productFieldKinds = map[string]fieldKind{
	"badges": kindArray,
	"rating": kindRating,

	"sku_count":               kindNumber,
	"oos_sku_count":           kindNumber,
	"stock_sum":               kindNumber,
	"sales_units_m":           kindNumber,
	"sales_units_lm":          kindNumber,
	"sales_amount_m":          kindNumber,
	"sales_amount_lm":         kindNumber,
	"profit_m":                kindNumber,
	"profit_lm":               kindNumber,
	"access_m":                kindNumber,
	"access_lm":               kindNumber,
	"cv_m":                    kindNumber,
	"cv_lm":                   kindNumber,
	"bounce_m":                kindNumber,
	"bounce_lm":               kindNumber,
	"stay_m":                  kindNumber,
	"stay_lm":                 kindNumber,
	"fav_add_m":               kindNumber,
	"fav_add_lm":              kindNumber,
	"fav_total":               kindNumber,
	"orders_total_m":          kindNumber,
	"orders_total_lm":         kindNumber,
	"orders_new_m":            kindNumber,
	"orders_new_lm":           kindNumber,
	"orders_rep_m":            kindNumber,
	"orders_rep_lm":           kindNumber,
	"reviews_post_m":          kindNumber,
	"reviews_post_lm":         kindNumber,
	"reviews_total":           kindNumber,
	"min_setting_margin":      kindNumber,
	"max_setting_margin":      kindNumber,
	"min_setting_unit_profit": kindNumber,
	"access_diff":             kindNumber,
	"cv_diff":                 kindNumber,
	"sales_units_diff":        kindNumber,
	"profit_diff":             kindNumber,
	"new_ratio_m":             kindNumber,
	"rep_ratio_m":             kindNumber,
}

func kindOf(field string) fieldKind {
	if kind, ok := productFieldKinds[field]; ok {
		return kind
	}
	return kindString
}

// ProjectSummaries builds the list view in snapshot order. Note ratings
// override the product's own rating.
func ProjectSummaries(snap *snapshot.Snapshot) []ProductSummary {
	if snap == nil {
		return []ProductSummary{}
	}
	noteRatings := snap.NoteRatings()
	out := make([]ProductSummary, 0, len(snap.Products))
	for _, row := range snap.Products {
		code := snapshot.AsString(row["product_code"])
		rating := noteRatings[code]
		if rating == "" {
			rating = snapshot.AsString(row["rating"])
		}
		out = append(out, ProductSummary{
			ProductCode:       code,
			RepresentativeSKU: snapshot.AsString(row["representative_sku"]),
			SKUCount:          snapshot.AsNumber(row["sku_count"]),
			Rating:            snapshot.ParseRating(rating),
			ProductName:       snapshot.AsString(row["product_name"]),
			StockSum:          snapshot.AsNumber(row["stock_sum"]),
			SalesUnitsM:       snapshot.AsNumber(row["sales_units_m"]),
			AccessM:           snapshot.AsNumber(row["access_m"]),
			CVM:               snapshot.AsNumber(row["cv_m"]),
			Badges:            snapshot.SafeJSONArray(row["badges"]),
		})
	}
	return out
}

// ProjectDetail normalises every column of a product row.
func ProjectDetail(row snapshot.Row) ProductDetail {
	out := make(ProductDetail, len(row)+1)
	for field, value := range row {
		switch kindOf(field) {
		case kindNumber:
			out[field] = snapshot.AsNumber(value)
		case kindArray:
			out[field] = snapshot.SafeJSONArray(value)
		case kindRating:
			continue
		default:
			out[field] = snapshot.AsString(value)
		}
	}
	out["rating"] = snapshot.ParseRating(row["rating"])
	return out
}

// ProjectSKU normalises a SKU row.
func ProjectSKU(row snapshot.Row) SKU {
	margin := snapshot.AsNumber(row["setting_margin"])
	return SKU{
		ProductCode:       snapshot.AsString(row["product_code"]),
		SKUCode:           snapshot.AsString(row["sku_code"]),
		ShippingType:      snapshot.AsString(row["shipping_type"]),
		CostExTax:         snapshot.AsNumber(row["cost_ex_tax"]),
		Stock:             snapshot.AsNumber(row["stock"]),
		Stock0Days:        snapshot.AsNumber(row["stock0_days"]),
		PriceInTax:        snapshot.AsNumber(row["price_in_tax"]),
		SalesUnitsM:       snapshot.AsNumber(row["sales_units_m"]),
		SalesUnitsLM:      snapshot.AsNumber(row["sales_units_lm"]),
		SalesAmountM:      snapshot.AsNumber(row["sales_amount_m"]),
		ProfitM:           snapshot.AsNumber(row["profit_m"]),
		SettingUnitProfit: snapshot.AsNumber(row["setting_unit_profit"]),
		SettingMargin:     margin,
		SettingMarginPct:  MarginPercent(margin),
		UpdatedAt:         snapshot.AsString(row["updated_at"]),
	}
}

// MarginPercent converts a setting margin to percent. Upstream data mixes
// fractions (0–1) and percentages; values at or below 1 are read as fractions.
func MarginPercent(v float64) float64 {
	if v <= 1 {
		return v * 100
	}
	return v
}

// Rating returns the product row's own rating.
func (d ProductDetail) Rating() *snapshot.Rating {
	if r, ok := d["rating"].(*snapshot.Rating); ok {
		return r
	}
	return snapshot.ParseRating(d["rating"])
}
