package domain

// UrlStats is the aggregated click snapshot the shortener backend returns
// for one link. Breakdowns may be partial: TotalClicks is not required to
// equal the sum of any single breakdown, unknown values land in buckets
// like "Unknown" or "Direct/Unknown". The snapshot is immutable, view
// building never mutates it.
type UrlStats struct {
	URLID            int64            `json:"url_id"`
	ShortCode        string           `json:"short_code"`
	OriginalURL      string           `json:"original_url"`
	TotalClicks      int64            `json:"total_clicks"`
	Referrers        map[string]int64 `json:"referrers"`
	Browsers         map[string]int64 `json:"browsers"`
	OperatingSystems map[string]int64 `json:"operating_systems"`
	Locations        map[string]int64 `json:"locations"`
	ClicksOverTime   map[string]int64 `json:"clicks_over_time"`
}
