package geo

import (
	"strings"

	"LinkTelemetry-Dashboard/internal/domain"
)

// Parse splits a raw location bucket label into city and country. The label
// is comma-separated with the country always in the last segment. Segments
// are trimmed and empty ones dropped: two or more remaining segments give
// city and country, exactly one gives country only, none gives neither.
// Total over all inputs, never fails.
func Parse(raw string) domain.ParsedLocation {
	parts := strings.Split(raw, ",")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			segments = append(segments, part)
		}
	}

	switch len(segments) {
	case 0:
		return domain.ParsedLocation{}
	case 1:
		return domain.ParsedLocation{Country: segments[0]}
	default:
		return domain.ParsedLocation{
			City:    segments[0],
			Country: segments[len(segments)-1],
		}
	}
}
