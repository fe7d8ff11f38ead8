// Package classify derives the tri-state safety status shown on the
// dashboard from measured concentrations.
package classify

// Status is the safety classification of a station or a single reading.
type Status string

const (
	StatusSafe    Status = "safe"
	StatusCaution Status = "caution"
	StatusDanger  Status = "danger"
)

// Severity orders statuses from safe (0) to danger (2).
func (s Status) Severity() int {
	switch s {
	case StatusCaution:
		return 1
	case StatusDanger:
		return 2
	default:
		return 0
	}
}

func worse(a, b Status) Status {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// Pollutants holds the four heavy-metal concentrations tracked by the
// network, in parts per million.
type Pollutants struct {
	Lead    float64 `json:"lead"`
	Mercury float64 `json:"mercury"`
	Cadmium float64 `json:"cadmium"`
	Arsenic float64 `json:"arsenic"`
}

// bound is a two-tier upper threshold: at or below safe is safe, at or
// below caution is caution, above caution is danger.
type bound struct {
	safe    float64
	caution float64
}

var (
	leadBound    = bound{0.2, 0.5}
	mercuryBound = bound{0.05, 0.1}
	cadmiumBound = bound{0.03, 0.06}
	arsenicBound = bound{0.05, 0.1}

	tdsBound = bound{300, 500} // mg/L
)

// pH is range-based rather than an upper bound (WHO guideline bands).
var (
	phSafeMin, phSafeMax       = 6.5, 8.5
	phCautionMin, phCautionMax = 6.0, 9.0
)

func gradeUpper(v float64, b bound) Status {
	switch {
	case v > b.caution:
		return StatusDanger
	case v > b.safe:
		return StatusCaution
	default:
		return StatusSafe
	}
}

func gradePH(ph float64) Status {
	switch {
	case ph >= phSafeMin && ph <= phSafeMax:
		return StatusSafe
	case ph >= phCautionMin && ph <= phCautionMax:
		return StatusCaution
	default:
		return StatusDanger
	}
}

// Classify maps a pollutant vector to its overall status. The result is
// the worst per-metal grade, so evaluation order never matters and
// raising any single concentration can only hold or worsen the result.
func Classify(p Pollutants) Status {
	out := StatusSafe
	out = worse(out, gradeUpper(p.Lead, leadBound))
	out = worse(out, gradeUpper(p.Mercury, mercuryBound))
	out = worse(out, gradeUpper(p.Cadmium, cadmiumBound))
	out = worse(out, gradeUpper(p.Arsenic, arsenicBound))
	return out
}

// ClassifyWaterQuality applies the same two-tier logic to the live
// sensor parameters: pH against the WHO bands and total dissolved
// solids against the 300/500 mg/L bounds.
func ClassifyWaterQuality(ph, tds float64) Status {
	return worse(gradePH(ph), gradeUpper(tds, tdsBound))
}
