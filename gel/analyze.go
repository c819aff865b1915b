package gel

import (
	"fmt"
	"image"

	"github.com/carbocation/gelqc/standards"
)

// Result is the graded outcome for one lane.
type Result struct {
	Lane      int             `json:"lane"`
	Region    image.Rectangle `json:"-"`
	Stats     Stats           `json:"stats"`
	Smear     Smear           `json:"smear"`
	SmearRule string          `json:"smear_rule"`
	Integrity Integrity       `json:"integrity"`
	Band      Band            `json:"band"`
	Priority  Priority        `json:"priority"`
}

// Annotation is the short human form, e.g. "Clean / Visible".
func (r Result) Annotation() string {
	return r.Smear.String() + " / " + r.Integrity.String()
}

// Analyzer grades lanes against a fixed pair of thresholds.
type Analyzer struct {
	Thresholds Thresholds
}

// NewAnalyzer takes its thresholds from the image section of a standards
// config.
func NewAnalyzer(img standards.Image) Analyzer {
	return Analyzer{Thresholds: Thresholds{Smear: img.Smear, Band: img.Band}}
}

// Analyze normalizes img and grades lane laneIndex of totalLanes. Callers
// grading many lanes of one photograph should use Gel, which normalizes only
// once.
func (a Analyzer) Analyze(img *LaneImage, laneIndex, totalLanes int) (Result, error) {
	if img == nil {
		return Result{}, ErrNoImage
	}

	norm, _ := Normalize(img)

	return a.analyzeNormalized(norm, laneIndex, totalLanes)
}

func (a Analyzer) analyzeNormalized(norm *LaneImage, laneIndex, totalLanes int) (Result, error) {
	r, err := LaneBounds(norm.Width(), norm.Height(), totalLanes, laneIndex)
	if err != nil {
		return Result{}, err
	}

	s, err := laneStats(norm, r)
	if err != nil {
		return Result{}, fmt.Errorf("lane %d: %w", laneIndex, err)
	}

	smear, rule := classifySmear(s, a.Thresholds)
	integrity, band := classifyIntegrity(smear, s, a.Thresholds)

	return Result{
		Lane:      laneIndex,
		Region:    r,
		Stats:     s,
		Smear:     smear,
		SmearRule: rule,
		Integrity: integrity,
		Band:      band,
		Priority:  classifyPriority(smear, integrity, band),
	}, nil
}

// Gel is one photograph prepared for a run: normalized once, then read by
// any number of goroutines.
type Gel struct {
	norm     *LaneImage
	inverted bool
	lanes    int
	analyzer Analyzer
	err      error
}

// NewGel normalizes raw and binds it to a lane count. A nil raw image yields a
// Gel whose every lane reports ErrNoImage.
func NewGel(raw *LaneImage, lanes int, a Analyzer) *Gel {
	if raw == nil {
		return FailedGel(ErrNoImage)
	}

	norm, inverted := Normalize(raw)

	return &Gel{norm: norm, inverted: inverted, lanes: lanes, analyzer: a}
}

// FailedGel returns a Gel that reports err for every lane. It is used when
// the photograph could not be read, so that each sample still gets an
// annotation.
func FailedGel(err error) *Gel {
	return &Gel{err: err}
}

// Err returns the load error, if any.
func (g *Gel) Err() error { return g.err }

// Lanes is the number of lanes the photograph is divided into.
func (g *Gel) Lanes() int { return g.lanes }

// Inverted reports whether the photograph had a light background.
func (g *Gel) Inverted() bool { return g.inverted }

// Normalized exposes the working image. Callers must not modify it.
func (g *Gel) Normalized() *LaneImage { return g.norm }

// Lane grades lane i.
func (g *Gel) Lane(i int) (Result, error) {
	if g == nil {
		return Result{}, ErrNoImage
	}
	if g.err != nil {
		return Result{}, g.err
	}

	return g.analyzer.analyzeNormalized(g.norm, i, g.lanes)
}
