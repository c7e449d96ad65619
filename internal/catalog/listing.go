package catalog

import (
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/skuboard/skuboard/internal/snapshot"
)

// SortField names a sortable list column.
type SortField string

const (
	SortNone        SortField = ""
	SortStockSum    SortField = "stock_sum"
	SortSalesUnitsM SortField = "sales_units_m"
	SortAccessM     SortField = "access_m"
	SortCVM         SortField = "cv_m"
)

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortField accepts one of the sortable columns; anything else means
// no sort.
func ParseSortField(s string) SortField {
	switch f := SortField(strings.TrimSpace(s)); f {
	case SortStockSum, SortSalesUnitsM, SortAccessM, SortCVM:
		return f
	default:
		return SortNone
	}
}

// ParseSortDirection defaults to descending.
func ParseSortDirection(s string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(s), string(SortAsc)) {
		return SortAsc
	}
	return SortDesc
}

// SortState is the active sort column and direction.
type SortState struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Toggle returns the state after a header click: the active column flips
// direction, a new column starts descending.
func (s SortState) Toggle(field SortField) SortState {
	if field == SortNone {
		return s
	}
	if s.Field == field {
		if s.Direction == SortAsc {
			return SortState{Field: field, Direction: SortDesc}
		}
		return SortState{Field: field, Direction: SortAsc}
	}
	return SortState{Field: field, Direction: SortDesc}
}

// Range is an optional inclusive [Min, Max] bound given as raw input. A bound
// applies only when it parses to a finite number.
type Range struct {
	Min string `json:"min,omitempty"`
	Max string `json:"max,omitempty"`
}

func (r Range) bounds() (lo float64, hasLo bool, hi float64, hasHi bool) {
	lo, hasLo = parseBound(r.Min)
	hi, hasHi = parseBound(r.Max)
	return lo, hasLo, hi, hasHi
}

func (r Range) contains(v float64) bool {
	lo, hasLo, hi, hasHi := r.bounds()
	if hasLo && v < lo {
		return false
	}
	if hasHi && v > hi {
		return false
	}
	return true
}

func parseBound(raw string) (float64, bool) {
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

// ListQuery describes the list filters and the sort.
type ListQuery struct {
	Search  string            `json:"search,omitempty"`
	Badges  []string          `json:"badges,omitempty"`
	Ratings []snapshot.Rating `json:"ratings,omitempty"`
	Stock   Range             `json:"stock"`
	Sales   Range             `json:"sales"`
	Access  Range             `json:"access"`
	CV      Range             `json:"cv"`
	Sort    SortState         `json:"sort"`
}

// Apply filters and sorts products. The input slice is left untouched and
// equal sort keys keep their snapshot order.
func Apply(products []ProductSummary, q ListQuery) []ProductSummary {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.ProductName), needle) &&
			!strings.Contains(strings.ToLower(p.ProductCode), needle) {
			continue
		}
		if len(q.Badges) > 0 && !hasAnyBadge(p.Badges, q.Badges) {
			continue
		}
		if len(q.Ratings) > 0 && (p.Rating == nil || !slices.Contains(q.Ratings, *p.Rating)) {
			continue
		}
		if !q.Stock.contains(p.StockSum) ||
			!q.Sales.contains(p.SalesUnitsM) ||
			!q.Access.contains(p.AccessM) ||
			!q.CV.contains(p.CVM) {
			continue
		}
		out = append(out, p)
	}

	key := sortKey(q.Sort.Field)
	if key == nil {
		return out
	}
	desc := q.Sort.Direction != SortAsc
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return key(out[i]) > key(out[j])
		}
		return key(out[i]) < key(out[j])
	})
	return out
}

func hasAnyBadge(have, want []string) bool {
	for _, b := range want {
		if slices.Contains(have, b) {
			return true
		}
	}
	return false
}

func sortKey(field SortField) func(ProductSummary) float64 {
	switch field {
	case SortStockSum:
		return func(p ProductSummary) float64 { return p.StockSum }
	case SortSalesUnitsM:
		return func(p ProductSummary) float64 { return p.SalesUnitsM }
	case SortAccessM:
		return func(p ProductSummary) float64 { return p.AccessM }
	case SortCVM:
		return func(p ProductSummary) float64 { return p.CVM }
	default:
		return nil
	}
}
