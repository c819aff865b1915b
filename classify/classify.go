// Package classify fuses a sample's concentration, its QC verdict and its
// gel lane into the single sequencing order used downstream.
package classify

import (
	"errors"

	"github.com/carbocation/gelqc/gel"
	"github.com/carbocation/gelqc/qc"
	"github.com/carbocation/gelqc/standards"
)

// Tier is the concentration bucket.
type Tier int

const (
	TierHigh Tier = iota
	TierMedium
	TierLow
	TierError
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "High"
	case TierMedium:
		return "Medium"
	case TierLow:
		return "Low"
	}
	return "Error"
}

func (t Tier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Annotations used when the gel was not consulted or could not be read.
const (
	AnnotationBelowGate       = "Concentration < 20"
	AnnotationImagingDisabled = "Imaging Disabled"
	AnnotationNoImage         = "No Gel Image"
	AnnotationReadError       = "Read Error"
	AnnotationLaneError       = "Lane Error"
	AnnotationError           = "Error"
)

// Tiers are the inclusive lower bounds of the High and Medium buckets. They
// are deliberately separate from the QC thresholds in standards.Config.
type Tiers struct {
	High   float64
	Medium float64
}

// DefaultTiers returns High ≥ 50, Medium ≥ 20.
func DefaultTiers() Tiers {
	return Tiers{High: 50, Medium: 20}
}

// Of buckets a concentration.
func (t Tiers) Of(concentration float64) Tier {
	switch {
	case concentration >= t.High:
		return TierHigh
	case concentration >= t.Medium:
		return TierMedium
	}
	return TierLow
}

// Lanes serves graded lanes of one gel photograph. *gel.Gel satisfies it.
type Lanes interface {
	Lane(i int) (gel.Result, error)
}

// Composite is the per-sample outcome of a run.
type Composite struct {
	Name            string       `json:"name"`
	Concentration   float64      `json:"concentration"`
	Ratio280        float64      `json:"ratio_260_280"`
	Ratio230        float64      `json:"ratio_260_230"`
	Tier            Tier         `json:"tier"`
	Verdict         qc.Verdict   `json:"verdict"`
	Lane            *gel.Result  `json:"lane,omitempty"`
	Electrophoresis string       `json:"electrophoresis"`
	Order           gel.Priority `json:"order"`
}

// Classifier holds the two concentration knobs: the tier bounds and the
// minimum concentration for which a gel lane is worth grading.
type Classifier struct {
	Tiers       Tiers
	ImagingGate float64
}

// New returns a Classifier with the factory knobs.
func New() Classifier {
	return Classifier{Tiers: DefaultTiers(), ImagingGate: 20}
}

// Classify combines a parsed record, its verdict and its lane. lanes may be
// nil when no gel was supplied. laneIndex is the zero-based lane on the gel.
func (c Classifier) Classify(rec qc.Record, v qc.Verdict, lanes Lanes, laneIndex int, cfg standards.Config) Composite {
	out := Composite{
		Name:          rec.Name,
		Concentration: rec.Concentration,
		Ratio280:      rec.Ratio280,
		Ratio230:      rec.Ratio230,
		Tier:          c.Tiers.Of(rec.Concentration),
		Verdict:       v,
		Order:         gel.PriorityWorst,
	}

	if rec.Concentration < c.ImagingGate {
		out.Electrophoresis = AnnotationBelowGate
		return out
	}

	if !cfg.Checks.Image {
		out.Electrophoresis = AnnotationImagingDisabled
		return out
	}

	if lanes == nil {
		out.Electrophoresis = AnnotationNoImage
		return out
	}

	res, err := lanes.Lane(laneIndex)
	switch {
	case err == nil:
	case errors.Is(err, gel.ErrNoImage):
		out.Electrophoresis = AnnotationNoImage
		return out
	case errors.Is(err, gel.ErrImageDecode):
		out.Electrophoresis = AnnotationReadError
		return out
	default:
		out.Electrophoresis = AnnotationLaneError
		return out
	}

	out.Lane = &res
	out.Electrophoresis = res.Annotation()
	out.Order = res.Priority

	return out
}

// ClassifyError is the composite for a row whose measurements could not be
// parsed.
func (c Classifier) ClassifyError(name string) Composite {
	return Composite{
		Name:            name,
		Tier:            TierError,
		Verdict:         qc.ErrorVerdict(),
		Electrophoresis: AnnotationError,
		Order:           gel.PriorityWorst,
	}
}
