package gel

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Profile is the mean intensity of every row of lane i, top to bottom, on the
// working image.
func (g *Gel) Profile(i int) ([]float64, error) {
	if g == nil {
		return nil, ErrNoImage
	}
	if g.err != nil {
		return nil, g.err
	}

	r, err := LaneBounds(g.norm.Width(), g.norm.Height(), g.lanes, i)
	if err != nil {
		return nil, fmt.Errorf("lane %d: %w", i, err)
	}

	out := make([]float64, r.Dy())
	row := make([]float64, r.Dx())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x-r.Min.X] = float64(g.norm.At(x, y))
		}
		out[y-r.Min.Y] = stat.Mean(row, nil)
	}

	return out, nil
}
