package classify

import (
	"errors"
	"fmt"
	"testing"

	"github.com/carbocation/gelqc/gel"
	"github.com/carbocation/gelqc/qc"
	"github.com/carbocation/gelqc/standards"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLanes struct {
	res   gel.Result
	err   error
	calls int
}

func (s *stubLanes) Lane(i int) (gel.Result, error) {
	s.calls++
	r := s.res
	r.Lane = i
	return r, s.err
}

func visibleLane() gel.Result {
	return gel.Result{
		Smear:     gel.SmearClean,
		Integrity: gel.IntegrityVisible,
		Band:      gel.BandHigh,
		Priority:  1,
	}
}

func TestTiers(t *testing.T) {
	tiers := DefaultTiers()

	cases := []struct {
		conc float64
		want Tier
	}{
		{49.9, TierMedium},
		{50, TierHigh},
		{19.9, TierLow},
		{20, TierMedium},
		{0, TierLow},
		{1000, TierHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tiers.Of(tc.conc), "concentration %v", tc.conc)
	}
}

func TestTiersAreIndependentOfStandards(t *testing.T) {
	cfg := standards.Default()
	cfg.Concentration.Pass = 80
	cfg.Concentration.Min = 40

	c := New()
	rec := qc.Record{Name: "S", Concentration: 55, Ratio280: 1.9, Ratio230: 2.2}
	got := c.Classify(rec, qc.Evaluate(rec, cfg), nil, 0, cfg)

	assert.Equal(t, TierHigh, got.Tier)
	assert.Equal(t, qc.QualityAcceptable, got.Verdict.Quality)
}

func TestBelowImagingGate(t *testing.T) {
	lanes := &stubLanes{res: visibleLane()}
	rec := qc.Record{Name: "low", Concentration: 15, Ratio280: 1.9, Ratio230: 2.2}

	got := New().Classify(rec, qc.Evaluate(rec, standards.Default()), lanes, 0, standards.Default())

	assert.Equal(t, gel.Priority(4), got.Order)
	assert.Equal(t, "Concentration < 20", got.Electrophoresis)
	assert.Nil(t, got.Lane)
	assert.Zero(t, lanes.calls, "the gel must not be consulted below the gate")
}

func TestImagingRan(t *testing.T) {
	lanes := &stubLanes{res: visibleLane()}
	rec := qc.Record{Name: "good", Concentration: 60, Ratio280: 1.9, Ratio230: 2.3}

	got := New().Classify(rec, qc.Evaluate(rec, standards.Default()), lanes, 5, standards.Default())

	assert.Equal(t, gel.Priority(1), got.Order)
	assert.Equal(t, "Clean / Visible", got.Electrophoresis)
	require.NotNil(t, got.Lane)
	assert.Equal(t, 5, got.Lane.Lane)
	assert.Equal(t, TierHigh, got.Tier)
	assert.Equal(t, qc.QualityPass, got.Verdict.Quality)
}

func TestForcedOrders(t *testing.T) {
	rec := qc.Record{Name: "x", Concentration: 30, Ratio280: 1.9, Ratio230: 2.2}
	v := qc.Evaluate(rec, standards.Default())

	noImaging := standards.Default()
	noImaging.Checks.Image = false

	var nilGel *gel.Gel

	cases := []struct {
		name  string
		lanes Lanes
		cfg   standards.Config
		want  string
	}{
		{"no gel", nil, standards.Default(), AnnotationNoImage},
		{"nil gel pointer", nilGel, standards.Default(), AnnotationNoImage},
		{"gel without image", &stubLanes{err: gel.ErrNoImage}, standards.Default(), AnnotationNoImage},
		{"undecodable gel", &stubLanes{err: fmt.Errorf("%w: bad header", gel.ErrImageDecode)}, standards.Default(), AnnotationReadError},
		{"lane past the edge", &stubLanes{err: gel.ErrLaneOutOfRange}, standards.Default(), AnnotationLaneError},
		{"other failure", &stubLanes{err: errors.New("boom")}, standards.Default(), AnnotationLaneError},
		{"imaging disabled", &stubLanes{res: visibleLane()}, noImaging, AnnotationImagingDisabled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := New().Classify(rec, v, tc.lanes, 0, tc.cfg)
			assert.Equal(t, tc.want, got.Electrophoresis)
			assert.Equal(t, gel.PriorityWorst, got.Order)
			assert.Nil(t, got.Lane)
		})
	}
}

func TestImagingGateIsAKnob(t *testing.T) {
	c := New()
	c.ImagingGate = 40

	rec := qc.Record{Name: "mid", Concentration: 30, Ratio280: 1.9, Ratio230: 2.2}
	got := c.Classify(rec, qc.Evaluate(rec, standards.Default()), &stubLanes{res: visibleLane()}, 0, standards.Default())

	assert.Equal(t, AnnotationBelowGate, got.Electrophoresis)
	assert.Equal(t, TierMedium, got.Tier)
}

func TestClassifyError(t *testing.T) {
	got := New().ClassifyError("broken")

	assert.Equal(t, "broken", got.Name)
	assert.Zero(t, got.Concentration)
	assert.Equal(t, TierError, got.Tier)
	assert.Equal(t, "Error", got.Tier.String())
	assert.Equal(t, AnnotationError, got.Electrophoresis)
	assert.Equal(t, gel.PriorityWorst, got.Order)
	assert.Equal(t, qc.QualityError, got.Verdict.Quality)
}
