// Package snapshot models the externally generated product snapshot and the
// typed accessors the rest of the dashboard reads it through.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Row is a single loosely typed record from one of the snapshot collections.
type Row map[string]any

// Snapshot is an immutable point-in-time export of the product backend.
type Snapshot struct {
	GeneratedAt string `json:"generated_at"`
	Products    []Row  `json:"products"`
	SKUs        []Row  `json:"skus"`
	Notes       []Row  `json:"notes"`
	Settings    []Row  `json:"settings"`
}

// Rating is the operational product grade.
type Rating string

const (
	RatingS Rating = "S"
	RatingA Rating = "A"
	RatingB Rating = "B"
	RatingC Rating = "C"
	RatingD Rating = "D"
	RatingE Rating = "E"
)

// Ratings lists the grades in display order.
var Ratings = []Rating{RatingS, RatingA, RatingB, RatingC, RatingD, RatingE}

// ParseRating trims the value and returns it when it is one of the known
// grades. Blank or unknown values yield nil.
func ParseRating(v any) *Rating {
	s := strings.TrimSpace(AsString(v))
	for _, r := range Ratings {
		if string(r) == s {
			out := r
			return &out
		}
	}
	return nil
}

type wireSnapshot struct {
	GeneratedAt any   `json:"generated_at"`
	Products    []Row `json:"products"`
	SKUs        []Row `json:"skus"`
	Notes       []Row `json:"notes"`
	Settings    []Row `json:"settings"`
}

// Decode parses a snapshot document. Numbers are kept as json.Number so codes
// that look numeric survive untouched.
func Decode(r io.Reader) (*Snapshot, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw wireSnapshot
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &Snapshot{
		GeneratedAt: AsString(raw.GeneratedAt),
		Products:    nonNil(raw.Products),
		SKUs:        nonNil(raw.SKUs),
		Notes:       nonNil(raw.Notes),
		Settings:    nonNil(raw.Settings),
	}, nil
}

func nonNil(rows []Row) []Row {
	if rows == nil {
		return []Row{}
	}
	return rows
}
