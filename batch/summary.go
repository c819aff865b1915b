package batch

import (
	"math"

	"github.com/carbocation/gelqc/classify"
	"github.com/carbocation/gelqc/qc"
	"github.com/montanaflynn/stats"
)

// Summary tallies a run. Map keys are the printed forms ("PASS", "High",
// "1", ...).
type Summary struct {
	Total         int            `json:"total"`
	Errors        int            `json:"errors"`
	Quality       map[string]int `json:"quality"`
	Tier          map[string]int `json:"tier"`
	Order         map[string]int `json:"order"`
	Concentration Spread         `json:"concentration"`
}

// Spread describes the concentrations of the readable rows.
type Spread struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"sd"`
}

func Summarize(items []Item) Summary {
	s := Summary{
		Total:   len(items),
		Quality: make(map[string]int),
		Tier:    make(map[string]int),
		Order:   make(map[string]int),
	}

	var conc []float64
	for _, it := range items {
		s.Quality[it.Verdict.Quality.String()]++
		s.Tier[it.Tier.String()]++
		s.Order[it.Order.String()]++

		if it.Verdict.Quality == qc.QualityError || it.Tier == classify.TierError {
			s.Errors++
			continue
		}
		conc = append(conc, it.Concentration)
	}

	s.Concentration = spread(conc)

	return s
}

func spread(values []float64) Spread {
	data := stats.LoadRawData(values)
	if data.Len() < 1 {
		return Spread{}
	}

	out := Spread{N: data.Len()}
	// The only possible error is for empty input, handled above.
	out.Mean, _ = data.Mean()
	out.Median, _ = data.Median()
	out.Min, _ = data.Min()
	out.Max, _ = data.Max()
	out.StdDev, _ = data.StandardDeviation()

	if math.IsNaN(out.StdDev) {
		out.StdDev = 0
	}

	return out
}
