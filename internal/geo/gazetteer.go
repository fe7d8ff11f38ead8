// Package geo resolves station identity signals (free-text labels and
// coordinates) into canonical city and state names.
package geo

import (
	"math"
	"strings"
)

// Sentinels returned on lookup misses. Callers degrade to these rather
// than erroring; a missing city is a display problem, not a failure.
const (
	Unknown      = "Unknown"
	UnknownState = "Unknown State"
)

type place struct {
	lat, lng float64
	name     string
}

// Known monitoring cities. Distances are Euclidean in degree space; at
// these latitudes a degree is roughly 100 km, which is plenty for a
// nearest-city call over a table this sparse.
var cities = []place{
	{25.4683, 81.8546, "Varanasi"},
	{29.8703, 77.6495, "Haridwar"},
	{22.5726, 88.3639, "Kolkata"},
	{19.0760, 72.8777, "Mumbai"},
	{28.7041, 77.1025, "Delhi"},
	{12.9716, 77.5946, "Bangalore"},
	{13.0827, 80.2707, "Chennai"},
	{18.5204, 73.8567, "Pune"},
	{26.9124, 75.7873, "Jaipur"},
	{17.3850, 78.4867, "Hyderabad"},
	{19.9975, 73.7898, "Nashik"},
	{25.5941, 85.1376, "Patna"},
	{25.4358, 81.8463, "Prayagraj"},
}

// exactPlaces are hand-verified coordinate pairs for stations whose
// free-text labels are known to be wrong upstream. They match within a
// tight band and take precedence over the nearest-neighbor scan.
var exactPlaces = []place{
	{25.5941, 85.1376, "Patna"},
	{25.4358, 81.8463, "Prayagraj"},
}

const (
	exactTolerance = 0.01 // band for the hand-verified pairs
	nearestCutoff  = 1.0  // beyond this a nearest hit is a false positive
)

func degreeDistance(aLat, aLng, bLat, bLng float64) float64 {
	return math.Hypot(aLat-bLat, aLng-bLng)
}

// CityFromCoordinates returns the city nearest to (lat, lng), or Unknown
// when nothing in the gazetteer is plausibly close.
func CityFromCoordinates(lat, lng float64) string {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return Unknown
	}

	for _, p := range exactPlaces {
		if degreeDistance(lat, lng, p.lat, p.lng) < exactTolerance {
			return p.name
		}
	}

	best := Unknown
	bestDist := math.Inf(1)
	for _, p := range cities {
		if d := degreeDistance(lat, lng, p.lat, p.lng); d < bestDist {
			bestDist = d
			best = p.name
		}
	}
	if bestDist > nearestCutoff {
		return Unknown
	}
	return best
}

// cityAliases maps deprecated city names to their current ones. Lookup
// keys are lowercase.
var cityAliases = map[string]string{
	"allahabad": "Prayagraj",
}

// NormalizeCity trims a city name and replaces deprecated names with
// their current form.
func NormalizeCity(city string) string {
	city = strings.TrimSpace(city)
	if current, ok := cityAliases[strings.ToLower(city)]; ok {
		return current
	}
	return city
}

// cityStates maps lowercase city names to their state or union territory.
var cityStates = map[string]string{
	"varanasi":  "Uttar Pradesh",
	"prayagraj": "Uttar Pradesh",
	"haridwar":  "Uttarakhand",
	"kolkata":   "West Bengal",
	"mumbai":    "Maharashtra",
	"nashik":    "Maharashtra",
	"pune":      "Maharashtra",
	"delhi":     "Delhi",
	"new delhi": "Delhi",
	"bangalore": "Karnataka",
	"chennai":   "Tamil Nadu",
	"jaipur":    "Rajasthan",
	"hyderabad": "Telangana",
	"patna":     "Bihar",
}

// StateFromCity resolves a city to its state, normalizing aliases first.
func StateFromCity(city string) string {
	normalized := NormalizeCity(city)
	if state, ok := cityStates[strings.ToLower(normalized)]; ok {
		return state
	}
	return UnknownState
}
