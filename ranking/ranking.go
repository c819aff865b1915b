// Package ranking orders classified samples for review and for sequencing.
package ranking

import (
	"sort"

	"github.com/carbocation/gelqc/classify"
)

// Ranked is a composite with its 1-based position in the sequencing queue.
type Ranked struct {
	Rank int `json:"rank"`
	classify.Composite
}

// ByTier returns a copy of items grouped by concentration tier (High, Medium,
// Low, Error) and, within a tier, by 260/230 from highest to lowest. Ties
// keep their input order.
func ByTier(items []classify.Composite) []classify.Composite {
	out := append([]classify.Composite(nil), items...)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].Ratio230 > out[j].Ratio230
	})

	return out
}

// ByPriority returns items ordered by Order, best first, numbered from 1. Ties
// keep their input order.
func ByPriority(items []classify.Composite) []Ranked {
	out := make([]Ranked, len(items))
	for i, c := range items {
		out[i] = Ranked{Composite: c}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})

	for i := range out {
		out[i].Rank = i + 1
	}

	return out
}

// Preview returns at most the first n items, in input order.
func Preview[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(items) < n {
		n = len(items)
	}

	return items[:n:n]
}
