package domain

// RankedEntry is a label/count pair ordered by descending count for display.
type RankedEntry struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// TimePoint is one day of the clicks-over-time series.
type TimePoint struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// MapMarker is a point marker for a location resolved to coordinates.
type MapMarker struct {
	Coordinate
	Radius float64 `json:"radius"`
}

// MapRegion is one location bucket prepared for map rendering. Marker is
// nil when the location could not be resolved to coordinates (country-only
// buckets, no dataset match, or dataset unavailable); the region then
// renders as choropleth fill only.
type MapRegion struct {
	Label     string     `json:"label"`
	Country   string     `json:"country,omitempty"`
	City      string     `json:"city,omitempty"`
	Clicks    int64      `json:"clicks"`
	FillColor string     `json:"fill_color"`
	Marker    *MapMarker `json:"marker,omitempty"`
}
