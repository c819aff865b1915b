// Package standards holds the QC thresholds that every evaluator reads. A
// Config is a plain value: it is replaced wholesale, never edited in place.
package standards

// Checks toggles the individual QC checks. A disabled check is skipped both
// when looking for violations and when deciding whether a sample passes.
type Checks struct {
	Concentration bool
	Ratio280      bool
	Ratio230      bool
	Image         bool
}

// Lower is a parameter with only a lower bound (concentration, 260/230).
type Lower struct {
	Min  float64
	Pass float64
	Unit string
}

// Bounded is a parameter with a lower and an upper bound (260/280).
type Bounded struct {
	Min  float64
	Max  float64
	Pass float64
	Unit string
}

// Image holds the gel brightness thresholds. Smear is compared against the
// lane-wide mean and Band against the marker band maxima.
type Image struct {
	Smear float64
	Band  float64
	Unit  string
}

type Config struct {
	Checks        Checks
	Concentration Lower
	Ratio280      Bounded
	Ratio230      Lower
	Image         Image
}

// Default returns the factory thresholds. Each call returns a fresh copy.
func Default() Config {
	return Config{
		Checks: Checks{
			Concentration: true,
			Ratio280:      true,
			Ratio230:      true,
			Image:         true,
		},
		Concentration: Lower{Min: 20, Pass: 50, Unit: "ng/μL"},
		Ratio280:      Bounded{Min: 1.8, Max: 2.0, Pass: 1.9, Unit: "ratio"},
		Ratio230:      Lower{Min: 2.0, Pass: 2.2, Unit: "ratio"},
		Image:         Image{Smear: 50, Band: 100, Unit: "intensity"},
	}
}
