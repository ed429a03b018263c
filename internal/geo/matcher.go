package geo

import (
	"LinkTelemetry-Dashboard/internal/domain"
)

// Match resolves a parsed location to coordinates against the reference
// dataset. Both city and country must be present: country-only buckets are
// never point-matched. Matching is exact, case-sensitive equality on
// (country, name); the first matching row wins when the dataset carries
// duplicates. No fuzzy matching or locale normalization is attempted, so
// spelling mismatches between the stats source and the dataset silently
// drop the marker.
func Match(parsed domain.ParsedLocation, dataset []domain.CityRecord) (domain.Coordinate, bool) {
	if parsed.City == "" || parsed.Country == "" {
		return domain.Coordinate{}, false
	}

	for _, rec := range dataset {
		if rec.Country == parsed.Country && rec.Name == parsed.City {
			return domain.Coordinate{Lat: rec.Lat, Lng: rec.Lng}, true
		}
	}

	return domain.Coordinate{}, false
}
