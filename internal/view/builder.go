package view

import (
	"sort"

	"LinkTelemetry-Dashboard/internal/domain"
)

// Views is the chart-ready projection of one stats snapshot.
type Views struct {
	TimeSeries       []domain.TimePoint
	Referrers        []domain.RankedEntry
	Browsers         []domain.RankedEntry
	OperatingSystems []domain.RankedEntry
	Locations        []domain.RankedEntry
}

// Build converts a raw stats snapshot into ordered chart inputs. Pure
// transform: recomputed in full on every new snapshot, never mutates the
// input.
func Build(stats *domain.UrlStats) Views {
	return Views{
		TimeSeries:       TimeSeries(stats.ClicksOverTime),
		Referrers:        Rank(stats.Referrers),
		Browsers:         Rank(stats.Browsers),
		OperatingSystems: Rank(stats.OperatingSystems),
		Locations:        Rank(stats.Locations),
	}
}

// Rank sorts a breakdown map descending by count. Entries are materialized
// in ascending label order first, so equal counts keep a deterministic
// relative order under the stable sort. Ranking an already ranked set
// yields the same sequence.
func Rank(breakdown map[string]int64) []domain.RankedEntry {
	entries := make([]domain.RankedEntry, 0, len(breakdown))
	for label, value := range breakdown {
		entries = append(entries, domain.RankedEntry{Label: label, Value: value})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Label < entries[j].Label
	})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value > entries[j].Value
	})

	return entries
}

// TimeSeries orders the per-day counts chronologically. Dates arrive as
// ISO "2006-01-02" strings, so lexicographic order is chronological order.
func TimeSeries(byDate map[string]int64) []domain.TimePoint {
	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	series := make([]domain.TimePoint, 0, len(dates))
	for _, date := range dates {
		series = append(series, domain.TimePoint{Date: date, Clicks: byDate[date]})
	}

	return series
}

// MaxValue returns the largest count in a ranked sequence, 0 when empty.
// Rankings are descending, so this is the head entry.
func MaxValue(entries []domain.RankedEntry) int64 {
	if len(entries) == 0 {
		return 0
	}
	return entries[0].Value
}
