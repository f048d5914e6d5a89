// Package policy holds the daily policy record model and the stay evaluator.
// A daily policy is one room's price/inventory state for a single calendar
// night; the evaluator reduces a window of them to a bookability verdict.
package policy

import (
	"encoding/json"
	"fmt"
	"math"
)

// Record is the canonical per-night policy record after normalization.
// Backends disagree on field names and envelope shapes; everything is
// reconciled here before any evaluation logic sees the data.
type Record struct {
	Date   string   `json:"date"`
	Price  *float64 `json:"price,omitempty"`
	Active bool     `json:"isActive"`
	Stock  int      `json:"stock"`
}

// HasPrice reports whether the record carries a finite numeric price.
func (r Record) HasPrice() bool {
	return r.Price != nil && !math.IsNaN(*r.Price) && !math.IsInf(*r.Price, 0)
}

// Sellable reports whether this night may contribute to a bookable stay:
// the room is on sale and at least one unit remains.
func (r Record) Sellable() bool {
	return r.Active && r.Stock > 0
}

// rawRecord mirrors the wire shape of a policy record. The inventory count
// arrives under either remainingStock or stock; isActive may be absent and
// defaults to true.
type rawRecord struct {
	Date           string   `json:"date"`
	Price          *float64 `json:"price"`
	IsActive       *bool    `json:"isActive"`
	Stock          *int     `json:"stock"`
	RemainingStock *int     `json:"remainingStock"`
}

// envelope is the alternative response shape {"data": [...]}.
type envelope struct {
	Data []rawRecord `json:"data"`
}

// NormalizePayload decodes a policy lookup response body into canonical
// records. Both a bare JSON array and a {data: [...]} object are accepted.
// Any other shape is an error; callers treat that the same as an empty
// window.
func NormalizePayload(body []byte) ([]Record, error) {
	var raws []rawRecord
	if err := json.Unmarshal(body, &raws); err != nil {
		var env envelope
		if err2 := json.Unmarshal(body, &env); err2 != nil || env.Data == nil {
			return nil, fmt.Errorf("unrecognized policy payload shape: %w", err)
		}
		raws = env.Data
	}
	return normalizeRecords(raws), nil
}

func normalizeRecords(raws []rawRecord) []Record {
	records := make([]Record, 0, len(raws))
	for _, raw := range raws {
		records = append(records, raw.canonical())
	}
	return records
}

func (r rawRecord) canonical() Record {
	rec := Record{
		Date:   r.Date,
		Price:  r.Price,
		Active: true,
	}
	if r.IsActive != nil {
		rec.Active = *r.IsActive
	}
	// remainingStock and stock are synonyms; prefer the former when both
	// are present. Absent means sold out.
	switch {
	case r.RemainingStock != nil:
		rec.Stock = *r.RemainingStock
	case r.Stock != nil:
		rec.Stock = *r.Stock
	}
	return rec
}
