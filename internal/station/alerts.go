package station

import (
	"fmt"
	"time"

	"github.com/bioshield-iot/bioshield-monitor/internal/classify"
)

// alertRule triggers an alert when a metal passes its alert bound, with
// severity escalating past the high bound. Alert bounds sit between the
// classifier's safe and caution thresholds so operators hear about a
// station before it tips into danger.
type alertRule struct {
	metal   string
	value   func(classify.Pollutants) float64
	trigger float64
	high    float64
}

var alertRules = []alertRule{
	{"Lead", func(p classify.Pollutants) float64 { return p.Lead }, 0.4, 0.6},
	{"Mercury", func(p classify.Pollutants) float64 { return p.Mercury }, 0.08, 0.12},
	{"Cadmium", func(p classify.Pollutants) float64 { return p.Cadmium }, 0.04, 0.06},
	{"Arsenic", func(p classify.Pollutants) float64 { return p.Arsenic }, 0.08, 0.10},
}

// DeriveAlerts emits one alert per station per metal above its trigger.
// Output is deterministic for a given station set and clock.
func DeriveAlerts(stations []Canonical, now time.Time) []Alert {
	var alerts []Alert
	for _, st := range stations {
		for _, rule := range alertRules {
			v := rule.value(st.Pollutants)
			if v <= rule.trigger {
				continue
			}
			severity := "medium"
			if v > rule.high {
				severity = "high"
			}
			alerts = append(alerts, Alert{
				ID:        fmt.Sprintf("%s-%d-%d", rule.metal, st.ID, now.Unix()),
				StationID: st.ID,
				Type:      fmt.Sprintf("High %s Levels", rule.metal),
				Severity:  severity,
				Message: fmt.Sprintf("%s concentration of %.3f ppm exceeds safe limits at %s",
					rule.metal, v, st.Name),
				Threshold: rule.trigger,
				Value:     v,
				CreatedAt: now,
			})
		}
	}
	return alerts
}
