package gelqc

import (
	"bytes"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in sample, assuming a CSV-like table. It falls back to a comma.
func DetermineDelimiter(sample []byte) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(bytes.NewReader(sample), '"')

	// Prefer the common delimiters when the detector offers several.
	for _, want := range []string{"\t", ",", ";"} {
		for _, got := range delimiters {
			if got == want {
				return rune(want[0])
			}
		}
	}

	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}
