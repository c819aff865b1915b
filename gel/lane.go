package gel

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Marker is one of the three reference bands of a lane.
type Marker struct {
	Name string
	// Lo and Hi are fractions of the lane height; rows [int(h*Lo), int(h*Hi))
	// belong to the band.
	Lo, Hi float64
}

// Markers are the ladder positions of the 20 kb, 5 kb and 3 kb fragments.
var Markers = [3]Marker{
	{Name: "high", Lo: 0.15, Hi: 0.25},
	{Name: "mid", Lo: 0.45, Hi: 0.55},
	{Name: "low", Lo: 0.65, Hi: 0.75},
}

// Rows returns the band's half-open row range for a lane of height h.
func (mk Marker) Rows(h int) (y0, y1 int) {
	return int(float64(h) * mk.Lo), int(float64(h) * mk.Hi)
}

// Stats are the brightness figures a lane is graded on.
type Stats struct {
	Average    float64 `json:"average"`
	MarkerHigh float64 `json:"marker_high"`
	MarkerMid  float64 `json:"marker_mid"`
	MarkerLow  float64 `json:"marker_low"`
}

// DimmestMarker is the smallest of the three marker maxima.
func (s Stats) DimmestMarker() float64 {
	return math.Min(s.MarkerHigh, math.Min(s.MarkerMid, s.MarkerLow))
}

// LaneBounds returns the strip of a w×h image that belongs to lane k of n.
// Every lane is w/n pixels wide; the right-most w%n columns belong to no lane
// (see Remainder).
func LaneBounds(w, h, n, k int) (image.Rectangle, error) {
	if n <= 0 || k < 0 || k >= n {
		return image.Rectangle{}, fmt.Errorf("%w: lane %d of %d", ErrLaneOutOfRange, k, n)
	}

	lw := w / n
	if lw == 0 {
		return image.Rectangle{}, fmt.Errorf("%w: %d px for %d lanes", ErrLaneTooNarrow, w, n)
	}

	return image.Rect(k*lw, 0, k*lw+lw, h), nil
}

// Remainder returns the columns at the right edge that LaneBounds leaves
// unassigned. It is empty when n divides w.
func Remainder(w, h, n int) image.Rectangle {
	if n <= 0 {
		return image.Rect(0, 0, w, h)
	}
	return image.Rect(w-w%n, 0, w, h)
}

// laneStats measures the lane strip r of an already normalized image.
func laneStats(m *LaneImage, r image.Rectangle) (Stats, error) {
	h := r.Dy()

	pixels := make([]float64, 0, r.Dx()*h)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			pixels = append(pixels, float64(m.At(x, y)))
		}
	}

	peaks := [len(Markers)]float64{}
	for i, mk := range Markers {
		y0, y1 := mk.Rows(h)
		if y1 <= y0 {
			return Stats{}, fmt.Errorf("%w: %s marker spans no rows at height %d", ErrBandEmpty, mk.Name, h)
		}
		// Rows are contiguous in pixels, r.Dx() values per row.
		peaks[i] = floats.Max(pixels[y0*r.Dx() : y1*r.Dx()])
	}

	return Stats{
		Average:    stat.Mean(pixels, nil),
		MarkerHigh: peaks[0],
		MarkerMid:  peaks[1],
		MarkerLow:  peaks[2],
	}, nil
}
