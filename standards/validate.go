package standards

import (
	"fmt"
	"math"
)

// ValidationError names the offending document key.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("standards: %s: %s", e.Field, e.Reason)
}

// Validate reports the first field that breaks a rule: every number must
// be finite and the 260/280 window must not be inverted.
func (c Config) Validate() error {
	numbers := []struct {
		key string
		v   float64
	}{
		{keyP1Min, c.Concentration.Min},
		{keyP1Pass, c.Concentration.Pass},
		{keyP2Min, c.Ratio280.Min},
		{keyP2Max, c.Ratio280.Max},
		{keyP2Pass, c.Ratio280.Pass},
		{keyP3Min, c.Ratio230.Min},
		{keyP3Pass, c.Ratio230.Pass},
		{keyImgT1, c.Image.Smear},
		{keyImgT2, c.Image.Band},
	}

	for _, n := range numbers {
		if math.IsNaN(n.v) || math.IsInf(n.v, 0) {
			return &ValidationError{Field: n.key, Reason: "must be a finite number"}
		}
	}

	if c.Ratio280.Min > c.Ratio280.Max {
		return &ValidationError{
			Field:  keyP2Min,
			Reason: fmt.Sprintf("%g is greater than %s (%g)", c.Ratio280.Min, keyP2Max, c.Ratio280.Max),
		}
	}

	return nil
}
