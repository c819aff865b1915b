package gel

import "strconv"

type Smear int

const (
	SmearClean Smear = iota
	SmearPresent
)

func (s Smear) String() string {
	if s == SmearPresent {
		return "Smearing"
	}
	return "Clean"
}

func (s Smear) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

type Integrity int

const (
	IntegrityNA Integrity = iota
	IntegrityLow
	IntegrityMedium
	IntegrityVisible
)

func (i Integrity) String() string {
	switch i {
	case IntegrityLow:
		return "Low"
	case IntegrityMedium:
		return "Medium"
	case IntegrityVisible:
		return "Visible"
	}
	return "N/A"
}

func (i Integrity) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// Band records which marker decided the integrity call.
type Band int

const (
	BandNone Band = iota
	BandHigh
	BandMid
	BandLow
)

func (b Band) String() string {
	switch b {
	case BandHigh:
		return "high"
	case BandMid:
		return "mid"
	case BandLow:
		return "low"
	}
	return "none"
}

func (b Band) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// Priority orders lanes for sequencing, 1 best and 4 worst.
type Priority int

const (
	PriorityBest  Priority = 1
	PriorityWorst Priority = 4
)

// String returns the single digit used in reports.
func (p Priority) String() string {
	return strconv.Itoa(int(p))
}

// Thresholds are the two configurable brightness cut-offs.
type Thresholds struct {
	// Smear is compared against the lane mean (default 50).
	Smear float64
	// Band is compared against the marker maxima (default 100).
	Band float64
}

// The tables below are evaluated top to bottom and the first matching row
// wins. Each table ends in a catch-all row, so every lane gets a call.

type smearRule struct {
	name string
	when func(Stats, Thresholds) bool
	call Smear
}

var smearRules = []smearRule{
	{
		name: "lane mean at or below smear threshold",
		when: func(s Stats, t Thresholds) bool { return s.Average <= t.Smear },
		call: SmearClean,
	},
	{
		name: "lane mean above dimmest marker",
		when: func(s Stats, _ Thresholds) bool { return s.Average > s.DimmestMarker() },
		call: SmearPresent,
	},
	{
		name: "markers outshine lane mean",
		when: func(Stats, Thresholds) bool { return true },
		call: SmearClean,
	},
}

func classifySmear(s Stats, t Thresholds) (Smear, string) {
	for _, r := range smearRules {
		if r.when(s, t) {
			return r.call, r.name
		}
	}
	return SmearClean, ""
}

type integrityRule struct {
	when      func(Smear, Stats, Thresholds) bool
	integrity Integrity
	band      Band
}

var integrityRules = []integrityRule{
	{
		when:      func(sm Smear, _ Stats, _ Thresholds) bool { return sm == SmearPresent },
		integrity: IntegrityLow,
		band:      BandNone,
	},
	{
		when:      func(_ Smear, s Stats, t Thresholds) bool { return s.MarkerHigh > t.Band },
		integrity: IntegrityVisible,
		band:      BandHigh,
	},
	{
		when:      func(_ Smear, s Stats, t Thresholds) bool { return s.MarkerMid > t.Band },
		integrity: IntegrityMedium,
		band:      BandMid,
	},
	{
		when:      func(_ Smear, s Stats, t Thresholds) bool { return s.MarkerLow > t.Band },
		integrity: IntegrityMedium,
		band:      BandLow,
	},
	{
		when:      func(Smear, Stats, Thresholds) bool { return true },
		integrity: IntegrityNA,
		band:      BandNone,
	},
}

func classifyIntegrity(sm Smear, s Stats, t Thresholds) (Integrity, Band) {
	for _, r := range integrityRules {
		if r.when(sm, s, t) {
			return r.integrity, r.band
		}
	}
	return IntegrityNA, BandNone
}

type priorityRule struct {
	when     func(Smear, Integrity, Band) bool
	priority Priority
}

var priorityRules = []priorityRule{
	{
		when:     func(sm Smear, in Integrity, _ Band) bool { return sm == SmearClean && in == IntegrityVisible },
		priority: 1,
	},
	{
		when:     func(_ Smear, in Integrity, b Band) bool { return in == IntegrityMedium && b == BandMid },
		priority: 2,
	},
	{
		when:     func(_ Smear, in Integrity, b Band) bool { return in == IntegrityMedium && b == BandLow },
		priority: 3,
	},
	{
		when:     func(Smear, Integrity, Band) bool { return true },
		priority: PriorityWorst,
	},
}

func classifyPriority(sm Smear, in Integrity, b Band) Priority {
	for _, r := range priorityRules {
		if r.when(sm, in, b) {
			return r.priority
		}
	}
	return PriorityWorst
}
