package geo

import "strings"

const nameDelimiter = " - "

// genericLabelMarker appears in auto-generated station labels that carry
// no city at all ("Monitoring Point 3"); those defer to coordinates.
const genericLabelMarker = "Monitoring Point"

// CityFromName extracts a candidate city from a free-text station label.
// Recognized shapes are "Ganga - Patna" (text after the delimiter) and
// "Godavari Nashik" (last whitespace token). Deprecated city names are
// normalized before returning.
func CityFromName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return Unknown
	}

	if i := strings.Index(name, nameDelimiter); i >= 0 {
		city := strings.TrimSpace(name[i+len(nameDelimiter):])
		if city == "" {
			return Unknown
		}
		return NormalizeCity(city)
	}

	if strings.Contains(name, genericLabelMarker) {
		return Unknown
	}

	fields := strings.Fields(name)
	return NormalizeCity(fields[len(fields)-1])
}
