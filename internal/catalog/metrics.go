package catalog

import "math"

// Comparison pairs this month with last month.
type Comparison struct {
	Current   float64 `json:"current"`
	Previous  float64 `json:"previous"`
	ChangePct float64 `json:"change_pct"`
}

func compare(current, previous float64) Comparison {
	return Comparison{Current: current, Previous: previous, ChangePct: changePercent(current, previous)}
}

// changePercent is the whole-percent month-over-month change, 0 when last
// month had nothing to compare against. Halves round up.
func changePercent(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return math.Floor((current-previous)/previous*100 + 0.5)
}

// DetailMetrics are the month-over-month figures shown on the detail page.
type DetailMetrics struct {
	SalesAmount  Comparison `json:"sales_amount"`
	Profit       Comparison `json:"profit"`
	SalesUnits   Comparison `json:"sales_units"`
	MarginPct    Comparison `json:"margin_pct"`
	Access       Comparison `json:"access"`
	CV           Comparison `json:"cv"`
	NewRatio     Comparison `json:"new_ratio"`
	RepeatRatio  Comparison `json:"repeat_ratio"`
	FavAdd       Comparison `json:"fav_add"`
	ReviewsPost  Comparison `json:"reviews_post"`
	Stay         Comparison `json:"stay"`
	BouncePct    Comparison `json:"bounce_pct"`
	StockSum     float64    `json:"stock_sum"`
	FavTotal     float64    `json:"fav_total"`
	ReviewsTotal float64    `json:"reviews_total"`
}

// DeriveMetrics computes the comparison figures from a projected detail row.
// Bounce arrives as a 0–1 ratio and is reported in percent; last month's
// new/repeat ratios are rebuilt from order counts.
func DeriveMetrics(d ProductDetail) DetailMetrics {
	n := d.Number
	return DetailMetrics{
		SalesAmount: compare(n("sales_amount_m"), n("sales_amount_lm")),
		Profit:      compare(n("profit_m"), n("profit_lm")),
		SalesUnits:  compare(n("sales_units_m"), n("sales_units_lm")),
		MarginPct: compare(
			ratioPct(n("profit_m"), n("sales_amount_m")),
			ratioPct(n("profit_lm"), n("sales_amount_lm")),
		),
		Access:       compare(n("access_m"), n("access_lm")),
		CV:           compare(n("cv_m"), n("cv_lm")),
		NewRatio:     compare(n("new_ratio_m"), ratioPct(n("orders_new_lm"), n("orders_total_lm"))),
		RepeatRatio:  compare(n("rep_ratio_m"), ratioPct(n("orders_rep_lm"), n("orders_total_lm"))),
		FavAdd:       compare(n("fav_add_m"), n("fav_add_lm")),
		ReviewsPost:  compare(n("reviews_post_m"), n("reviews_post_lm")),
		Stay:         compare(n("stay_m"), n("stay_lm")),
		BouncePct:    compare(n("bounce_m")*100, n("bounce_lm")*100),
		StockSum:     n("stock_sum"),
		FavTotal:     n("fav_total"),
		ReviewsTotal: n("reviews_total"),
	}
}

func ratioPct(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}
