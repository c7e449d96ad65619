package catalog

import (
	"sort"
	"strings"
)

// BadgeTone classifies a badge for display.
type BadgeTone string

const (
	ToneGood    BadgeTone = "good"
	ToneBad     BadgeTone = "bad"
	ToneNeutral BadgeTone = "neutral"
)

var (
	goodBadgeMarkers = []string{"高転換率", "超高転換率", "人気商品", "優良商品", "高評価", "在庫豊富"}
	badBadgeMarkers  = []string{"欠品", "赤字", "売上0", "CV低下", "要改善", "要注意", "低在庫"}
)

// ToneOf matches the badge against known markers; warnings win over praise.
func ToneOf(badge string) BadgeTone {
	for _, m := range badBadgeMarkers {
		if strings.Contains(badge, m) {
			return ToneBad
		}
	}
	for _, m := range goodBadgeMarkers {
		if strings.Contains(badge, m) {
			return ToneGood
		}
	}
	return ToneNeutral
}

// BadgeOption is one entry of the badge filter.
type BadgeOption struct {
	Badge string    `json:"badge"`
	Tone  BadgeTone `json:"tone"`
}

// DistinctBadges lists every badge used by the products, sorted.
func DistinctBadges(products []ProductSummary) []BadgeOption {
	seen := make(map[string]struct{})
	for _, p := range products {
		for _, b := range p.Badges {
			seen[b] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for b := range seen {
		names = append(names, b)
	}
	sort.Strings(names)
	out := make([]BadgeOption, len(names))
	for i, b := range names {
		out[i] = BadgeOption{Badge: b, Tone: ToneOf(b)}
	}
	return out
}
