package station

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/bioshield-iot/bioshield-monitor/internal/classify"
	"github.com/bioshield-iot/bioshield-monitor/internal/geo"
)

// ErrBadCoordinates marks a station row whose lat/lng cannot be used.
var ErrBadCoordinates = errors.New("station has unusable coordinates")

// Resolver turns raw station and reading rows into canonical stations.
// Construct once with the override table; all methods are safe for
// concurrent use.
type Resolver struct {
	overrides Overrides
	log       *zap.SugaredLogger
	now       func() time.Time
}

// NewResolver creates a Resolver using the given override table.
func NewResolver(overrides Overrides, logger *zap.SugaredLogger) *Resolver {
	return &Resolver{overrides: overrides, log: logger, now: time.Now}
}

// Resolve produces the canonical view of one station. latest may be nil
// when the station has no readings; the pollutant vector then sits at
// the safe floor of the estimation bands and is tagged as estimated.
func (r *Resolver) Resolve(rec Record, latest *Reading) (Canonical, error) {
	if badCoordinate(rec.Lat) || badCoordinate(rec.Lng) {
		return Canonical{}, fmt.Errorf("station %d (%q): %w", rec.ID, rec.Name, ErrBadCoordinates)
	}

	// Identity: name first, coordinates as fallback.
	city := geo.CityFromName(rec.Name)
	coordCity := geo.CityFromCoordinates(rec.Lat, rec.Lng)
	if city == geo.Unknown {
		city = coordCity
	} else if coordCity != geo.Unknown && coordCity != city {
		r.log.Debugw("station name and coordinates disagree",
			"station", rec.ID, "name_city", city, "coord_city", coordCity)
	}
	state := geo.StateFromCity(city)
	name := rec.Name

	// Exact-coordinate identity correction wins over anything the label
	// said.
	idOverride, corrected := findIdentityOverride(rec.Lat, rec.Lng)
	if corrected {
		name = idOverride.name
		city = idOverride.city
		state = idOverride.state
	}

	var pollutants classify.Pollutants
	var estimated bool
	if corrected {
		pollutants = idOverride.pollutants
	} else {
		pollutants, estimated = derivePollutants(latest)
	}

	status := classify.Classify(pollutants)

	lastUpdated := rec.CreatedAt
	if latest != nil && !latest.MeasuredAt.IsZero() {
		lastUpdated = latest.MeasuredAt
	}
	if lastUpdated.IsZero() {
		lastUpdated = r.now()
	}

	// Curated overrides replace the pollutant vector wholesale and the
	// status is recomputed so it stays consistent with the new vector.
	// Identity (name/city/state) is never touched here.
	if o, ok := r.overrides.Find(name, rec.ID); ok {
		pollutants = o.Pollutants
		estimated = false
		status = classify.Classify(pollutants)
		if !o.LastUpdated.IsZero() {
			lastUpdated = o.LastUpdated
		}
	}

	return Canonical{
		ID:          rec.ID,
		Name:        name,
		City:        city,
		State:       state,
		Coordinates: [2]float64{rec.Lat, rec.Lng},
		Description: rec.Description,
		Pollutants:  pollutants,
		Estimated:   estimated,
		Status:      status,
		LastUpdated: lastUpdated,
	}, nil
}

// ResolveBatch resolves every station it can. Duplicate rows sharing an
// (id, name) key collapse to the first occurrence, and a bad record
// skips only itself: the rest of the batch still resolves.
func (r *Resolver) ResolveBatch(recs []Record, latest map[int64]*Reading) []Canonical {
	seen := make(map[string]struct{}, len(recs))
	out := make([]Canonical, 0, len(recs))
	for _, rec := range recs {
		key := fmt.Sprintf("%d-%s", rec.ID, rec.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		c, err := r.Resolve(rec, latest[rec.ID])
		if err != nil {
			r.log.Warnw("skipping unresolvable station", "station", rec.ID, "error", err)
			continue
		}
		out = append(out, c)
	}
	return out
}

func badCoordinate(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// Proxy input ranges for scaling.
const (
	phMax        = 14.0
	doMax        = 15.0  // mg/L
	turbidityMax = 100.0 // NTU
)

// Plausible output bands per metal, in ppm. These are placeholders for
// stations without direct assays: the proxy signal is scaled into the
// band so the dashboard has a value to show. Anything produced this way
// is tagged Estimated on the canonical station.
var (
	leadBand    = [2]float64{0.1, 0.8}
	mercuryBand = [2]float64{0.01, 0.15}
	cadmiumBand = [2]float64{0.01, 0.08}
	arsenicBand = [2]float64{0.02, 0.12}
)

// derivePollutants builds the pollutant vector for a reading, preferring
// direct measurements and estimating the rest from proxy parameters.
// The bool result is true when any component was estimated.
func derivePollutants(latest *Reading) (classify.Pollutants, bool) {
	if latest == nil {
		// No telemetry at all: place the vector at the bottom of each
		// band so an unmeasured station reads safe rather than inventing
		// a warning.
		return classify.Pollutants{
			Lead:    leadBand[0],
			Mercury: mercuryBand[0],
			Cadmium: cadmiumBand[0],
			Arsenic: arsenicBand[0],
		}, true
	}

	ph, do, turbidity := latest.PH, latest.DissolvedOxygen, latest.Turbidity
	lead, mercury, cadmium, arsenic := latest.Lead, latest.Mercury, latest.Cadmium, latest.Arsenic

	var p classify.Pollutants
	estimated := false

	if lead != nil {
		p.Lead = *lead
	} else {
		p.Lead = scaleInto(ph, phMax, leadBand)
		estimated = true
	}
	if mercury != nil {
		p.Mercury = *mercury
	} else {
		p.Mercury = scaleInto(do, doMax, mercuryBand)
		estimated = true
	}
	if cadmium != nil {
		p.Cadmium = *cadmium
	} else {
		p.Cadmium = scaleInto(ph, phMax, cadmiumBand)
		estimated = true
	}
	if arsenic != nil {
		p.Arsenic = *arsenic
	} else {
		p.Arsenic = scaleInto(turbidity, turbidityMax, arsenicBand)
		estimated = true
	}
	return p, estimated
}

// scaleInto maps v from [0, inMax] onto the band, clamping out-of-range
// input and rounding to three decimals like the stored assay values.
func scaleInto(v, inMax float64, band [2]float64) float64 {
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	if v > inMax {
		v = inMax
	}
	out := band[0] + (v/inMax)*(band[1]-band[0])
	return math.Round(out*1000) / 1000
}
