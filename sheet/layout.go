// Package sheet reads sample tables. Fields are taken from fixed column
// positions described by a Layout; header rows are skipped, never parsed.
package sheet

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/carbocation/gelqc/qc"
)

// Layout names the zero-based column of each field and the number of leading
// rows to discard.
type Layout struct {
	Name             string
	HeaderRows       int
	ColName          int
	ColConcentration int
	ColRatio280      int
	ColRatio230      int
}

var Layouts = map[string]Layout{
	// Plate summary export: one header row, an index column, then name and the
	// three readings.
	"standard": {
		Name:             "standard",
		HeaderRows:       1,
		ColName:          1,
		ColConcentration: 2,
		ColRatio280:      3,
		ColRatio230:      4,
	},
	// Raw spectrophotometer export: 23 lines of run metadata and a header.
	"instrument": {
		Name:             "instrument",
		HeaderRows:       24,
		ColName:          1,
		ColConcentration: 9,
		ColRatio280:      11,
		ColRatio230:      12,
	},
}

func LayoutNames() string {
	names := make([]string, 0, len(Layouts))
	for m := range Layouts {
		names = append(names, m)
	}
	sort.Strings(names)

	return strings.Join(names, ", ")
}

// LookupLayout returns the named layout.
func LookupLayout(name string) (Layout, error) {
	l, exists := Layouts[name]
	if !exists {
		return Layout{}, fmt.Errorf("Layout %s is not found. Valid layout names include: %s", name, LayoutNames())
	}

	return l, nil
}

// Width is the minimum number of cells a data row must have.
func (l Layout) Width() int {
	w := l.ColName
	for _, c := range []int{l.ColConcentration, l.ColRatio280, l.ColRatio230} {
		if c > w {
			w = c
		}
	}

	return w + 1
}

// ParseError describes a data row whose readings could not be used.
type ParseError struct {
	// Line is the 1-based row of the source table, header rows included.
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("line %d: %s %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	errMissing   = errors.New("cell is missing")
	errEmpty     = errors.New("cell is empty")
	errNonFinite = errors.New("value is not finite")
)

// SampleName returns the sample name cell, or "" when the row is too short.
func (l Layout) SampleName(cells []string) string {
	if l.ColName >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[l.ColName])
}

// ParseRow reads one data row. line is used only for error reporting. The
// concentration is rounded to whole units.
func (l Layout) ParseRow(cells []string, line int) (qc.Record, error) {
	rec := qc.Record{Name: l.SampleName(cells)}

	fields := []struct {
		column string
		col    int
		dst    *float64
	}{
		{"concentration", l.ColConcentration, &rec.Concentration},
		{"260/280", l.ColRatio280, &rec.Ratio280},
		{"260/230", l.ColRatio230, &rec.Ratio230},
	}

	for _, f := range fields {
		if f.col >= len(cells) {
			return rec, &ParseError{Line: line, Column: f.column, Err: errMissing}
		}

		raw := strings.TrimSpace(cells[f.col])
		if raw == "" {
			return rec, &ParseError{Line: line, Column: f.column, Err: errEmpty}
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return rec, &ParseError{Line: line, Column: f.column, Value: raw, Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return rec, &ParseError{Line: line, Column: f.column, Value: raw, Err: errNonFinite}
		}

		*f.dst = v
	}

	rec.Concentration = qc.RoundConcentration(rec.Concentration)

	return rec, nil
}
