package qc

import (
	"fmt"
	"strconv"

	"github.com/carbocation/gelqc/standards"
)

// Evaluate applies cfg to r. Disabled checks are skipped entirely, so turning
// a check off can only relax a verdict.
func Evaluate(r Record, cfg standards.Config) Verdict {
	conc := RoundConcentration(r.Concentration)
	issues := make([]string, 0, 4)

	if cfg.Checks.Concentration && conc < cfg.Concentration.Min {
		issues = append(issues, below(1, cfg.Concentration.Min, cfg.Concentration.Unit))
	}

	if cfg.Checks.Ratio280 {
		if r.Ratio280 < cfg.Ratio280.Min {
			issues = append(issues, below(2, cfg.Ratio280.Min, cfg.Ratio280.Unit))
		}
		if r.Ratio280 > cfg.Ratio280.Max {
			issues = append(issues, above(2, cfg.Ratio280.Max, cfg.Ratio280.Unit))
		}
	}

	if cfg.Checks.Ratio230 && r.Ratio230 < cfg.Ratio230.Min {
		issues = append(issues, below(3, cfg.Ratio230.Min, cfg.Ratio230.Unit))
	}

	if len(issues) > 0 {
		return failVerdict(issues)
	}

	pass := (!cfg.Checks.Concentration || conc >= cfg.Concentration.Pass) &&
		(!cfg.Checks.Ratio280 || r.Ratio280 >= cfg.Ratio280.Pass) &&
		(!cfg.Checks.Ratio230 || r.Ratio230 >= cfg.Ratio230.Pass)

	if pass {
		return Verdict{Quality: QualityPass, Note: NotePass}
	}

	return Verdict{Quality: QualityAcceptable, Note: NoteAcceptable}
}

func below(param int, limit float64, unit string) string {
	return fmt.Sprintf("Parameter %d < %s %s", param, formatLimit(limit), unit)
}

func above(param int, limit float64, unit string) string {
	return fmt.Sprintf("Parameter %d > %s %s", param, formatLimit(limit), unit)
}

func formatLimit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
