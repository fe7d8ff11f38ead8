// Package station resolves raw monitoring-station rows into the
// canonical, dashboard-ready representation: identity resolution,
// pollutant derivation, classification and alerting.
package station

import (
	"time"

	"github.com/bioshield-iot/bioshield-monitor/internal/classify"
)

// Record is a monitoring_stations row. Immutable once created; this
// subsystem never writes it back.
type Record struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Reading is a water_data row, append-only and one-to-many with Record.
// The direct metal concentrations are nullable: most stations only
// report the proxy parameters.
type Reading struct {
	ID              int64     `json:"id"`
	StationID       int64     `json:"station_id"`
	PH              float64   `json:"ph"`
	Turbidity       float64   `json:"turbidity"`
	DissolvedOxygen float64   `json:"dissolved_oxygen"`
	Lead            *float64  `json:"lead,omitempty"`
	Mercury         *float64  `json:"mercury,omitempty"`
	Cadmium         *float64  `json:"cadmium,omitempty"`
	Arsenic         *float64  `json:"arsenic,omitempty"`
	QualityIndex    float64   `json:"water_quality_index"`
	MeasuredAt      time.Time `json:"measured_at"`
}

// Canonical is the fully resolved, UI-facing station. It is a pure
// view: recomputed on every refresh cycle and never persisted. Status
// always equals classify.Classify(Pollutants); nothing sets it
// independently.
type Canonical struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	City        string              `json:"city"`
	State       string              `json:"state"`
	Coordinates [2]float64          `json:"coordinates"` // [lat, lng]
	Description string              `json:"description,omitempty"`
	Pollutants  classify.Pollutants `json:"pollutants"`
	// Estimated marks pollutant vectors synthesized from proxy signals
	// rather than measured directly.
	Estimated   bool            `json:"estimated"`
	Status      classify.Status `json:"status"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// Alert is a threshold-crossing notification derived from a canonical
// station.
type Alert struct {
	ID        string    `json:"id"`
	StationID int64     `json:"station_id"`
	Type      string    `json:"alert_type"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Threshold float64   `json:"threshold_value"`
	Value     float64   `json:"current_value"`
	CreatedAt time.Time `json:"created_at"`
}
