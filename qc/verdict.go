// Package qc decides whether a sample's spectrophotometer readings meet the
// configured standards.
package qc

import (
	"math"
	"strings"
)

type Quality int

const (
	QualityError Quality = iota
	QualityFail
	QualityAcceptable
	QualityPass
)

func (q Quality) String() string {
	switch q {
	case QualityPass:
		return "PASS"
	case QualityAcceptable:
		return "ACCEPTABLE"
	case QualityFail:
		return "FAIL"
	}
	return "ERROR"
}

func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

const (
	NotePass       = "Excellent quality"
	NoteAcceptable = "Meets minimum requirements"
	NoteError      = "Cannot read values"
)

// Record is one sample row. Concentration is in whole units; see
// RoundConcentration.
type Record struct {
	Name          string
	Concentration float64
	Ratio280      float64
	Ratio230      float64
}

// Verdict is derived from a Record and is never stored apart from it.
type Verdict struct {
	Quality Quality  `json:"quality"`
	Issues  []string `json:"issues,omitempty"`
	Note    string   `json:"note"`
}

func failVerdict(issues []string) Verdict {
	return Verdict{
		Quality: QualityFail,
		Issues:  issues,
		Note:    strings.Join(issues, "; "),
	}
}

// ErrorVerdict is the verdict for a row whose measurements could not be read.
// The cause is not part of the note so that error rows group together.
func ErrorVerdict() Verdict {
	return Verdict{Quality: QualityError, Note: NoteError}
}

// RoundConcentration rounds half to even, so 20.5 becomes 20 and 21.5
// becomes 22.
func RoundConcentration(v float64) float64 {
	return math.RoundToEven(v)
}
