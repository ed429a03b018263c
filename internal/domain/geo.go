package domain

// ParsedLocation is the structured form of a raw location bucket label
// ("City, Country" or just "Country"). An empty field means absent.
type ParsedLocation struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// CityRecord is one row of the external city coordinate reference dataset.
type CityRecord struct {
	Name    string
	Country string
	Lat     float64
	Lng     float64
}

// Coordinate is a point on the map.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
