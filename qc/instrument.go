package qc

// Fixed acceptance limits applied to raw instrument exports. These predate
// configurable standards and are kept so that old exports grade the same way
// they always have.
const (
	instrumentMinConc  = 20
	instrumentPassConc = 50
	instrumentMin280   = 1.8
	instrumentMax280   = 2.0
	instrumentPass280  = 1.9
	instrumentMin230   = 2.0
	instrumentPass230  = 2.2

	NoteInstrumentAcceptable = "Meets minimum standard"
)

// EvaluateInstrument grades r against the fixed instrument limits.
func EvaluateInstrument(r Record) Verdict {
	conc := RoundConcentration(r.Concentration)

	var issues []string
	if conc < instrumentMinConc {
		issues = append(issues, "Low concentration")
	}
	if r.Ratio280 < instrumentMin280 || r.Ratio280 > instrumentMax280 {
		issues = append(issues, "260/280 abnormal")
	}
	if r.Ratio230 < instrumentMin230 {
		issues = append(issues, "260/230 abnormal")
	}

	switch {
	case len(issues) > 0:
		return failVerdict(issues)
	case conc >= instrumentPassConc && r.Ratio280 >= instrumentPass280 && r.Ratio230 >= instrumentPass230:
		return Verdict{Quality: QualityPass, Note: NotePass}
	}

	return Verdict{Quality: QualityAcceptable, Note: NoteInstrumentAcceptable}
}
