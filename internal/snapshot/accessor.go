package snapshot

import "strings"

// FindProduct returns the first product row with the given code.
func (s *Snapshot) FindProduct(productCode string) (Row, bool) {
	if s == nil {
		return nil, false
	}
	for _, row := range s.Products {
		if AsString(row["product_code"]) == productCode {
			return row, true
		}
	}
	return nil, false
}

// FindNote returns the note attached to the product, if any.
func (s *Snapshot) FindNote(productCode string) (Row, bool) {
	if s == nil {
		return nil, false
	}
	code := strings.TrimSpace(productCode)
	for _, row := range s.Notes {
		if strings.TrimSpace(AsString(row["product_code"])) == code {
			return row, true
		}
	}
	return nil, false
}

// ListSKUs returns every SKU row of the product in snapshot order.
func (s *Snapshot) ListSKUs(productCode string) []Row {
	out := []Row{}
	if s == nil {
		return out
	}
	for _, row := range s.SKUs {
		if AsString(row["product_code"]) == productCode {
			out = append(out, row)
		}
	}
	return out
}

// EffectiveRating prefers a non-blank note rating over the product row's own
// rating.
func (s *Snapshot) EffectiveRating(productCode string) *Rating {
	var noteRating string
	if note, ok := s.FindNote(productCode); ok {
		noteRating = strings.TrimSpace(AsString(note["rating"]))
	}
	if noteRating != "" {
		return ParseRating(noteRating)
	}
	product, ok := s.FindProduct(productCode)
	if !ok {
		return nil
	}
	return ParseRating(product["rating"])
}

// NoteRatings indexes the non-blank note ratings by product code. The list
// projection uses it to avoid a linear note scan per product.
func (s *Snapshot) NoteRatings() map[string]string {
	out := make(map[string]string)
	if s == nil {
		return out
	}
	for _, row := range s.Notes {
		code := strings.TrimSpace(AsString(row["product_code"]))
		if code == "" {
			continue
		}
		if _, seen := out[code]; seen {
			continue
		}
		out[code] = strings.TrimSpace(AsString(row["rating"]))
	}
	return out
}
