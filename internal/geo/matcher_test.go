package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"LinkTelemetry-Dashboard/internal/domain"
)

func TestMatch(t *testing.T) {
	dataset := []domain.CityRecord{
		{Name: "Paris", Country: "France", Lat: 48.8566, Lng: 2.3522},
		{Name: "Paris", Country: "United States", Lat: 33.6609, Lng: -95.5555},
		{Name: "Berlin", Country: "Germany", Lat: 52.52, Lng: 13.405},
		{Name: "Berlin", Country: "Germany", Lat: 0, Lng: 0}, // duplicate row
	}

	t.Run("exact match on country and name", func(t *testing.T) {
		coord, ok := Match(domain.ParsedLocation{City: "Paris", Country: "France"}, dataset)
		assert.True(t, ok)
		assert.Equal(t, domain.Coordinate{Lat: 48.8566, Lng: 2.3522}, coord)
	})

	t.Run("country disambiguates duplicate city names", func(t *testing.T) {
		coord, ok := Match(domain.ParsedLocation{City: "Paris", Country: "United States"}, dataset)
		assert.True(t, ok)
		assert.Equal(t, domain.Coordinate{Lat: 33.6609, Lng: -95.5555}, coord)
	})

	t.Run("first match wins for duplicate rows", func(t *testing.T) {
		coord, ok := Match(domain.ParsedLocation{City: "Berlin", Country: "Germany"}, dataset)
		assert.True(t, ok)
		assert.Equal(t, domain.Coordinate{Lat: 52.52, Lng: 13.405}, coord)
	})

	t.Run("absent city never matches", func(t *testing.T) {
		_, ok := Match(domain.ParsedLocation{Country: "France"}, dataset)
		assert.False(t, ok)
	})

	t.Run("absent country never matches", func(t *testing.T) {
		_, ok := Match(domain.ParsedLocation{City: "Paris"}, dataset)
		assert.False(t, ok)
	})

	t.Run("matching is case sensitive", func(t *testing.T) {
		_, ok := Match(domain.ParsedLocation{City: "paris", Country: "France"}, dataset)
		assert.False(t, ok)
	})

	t.Run("no match is not an error", func(t *testing.T) {
		_, ok := Match(domain.ParsedLocation{City: "Atlantis", Country: "Ocean"}, dataset)
		assert.False(t, ok)
	})

	t.Run("empty dataset", func(t *testing.T) {
		_, ok := Match(domain.ParsedLocation{City: "Paris", Country: "France"}, nil)
		assert.False(t, ok)
	})
}
