package dashboard

import (
	"context"

	"go.uber.org/zap"

	"LinkTelemetry-Dashboard/internal/domain"
	"LinkTelemetry-Dashboard/internal/geo"
	"LinkTelemetry-Dashboard/internal/view"
)

// StatsProvider is the upstream surface the service consumes.
type StatsProvider interface {
	FetchStats(ctx context.Context, shortCode, bearer, shareToken string) (*domain.UrlStats, error)
	CreateShareLink(ctx context.Context, shortCode, bearer string) (string, error)
}

// CityLookup resolves (country, city) pairs against the reference dataset.
type CityLookup interface {
	Load(ctx context.Context) ([]domain.CityRecord, error)
	Lookup(country, city string) (domain.Coordinate, bool)
}

// LabelNormalizer rewrites breakdown labels for display.
type LabelNormalizer interface {
	BrowserLabel(label string) string
	OSLabel(label string) string
}

// Config holds view-building configuration for the service.
type Config struct {
	PageSize int
	Palette  view.Palette
}

// Service assembles the complete dashboard view model for one link. All
// derived structures are recomputed synchronously from the latest snapshot;
// nothing is cached across snapshots except the city reference dataset.
type Service struct {
	stats      StatsProvider
	cities     CityLookup
	normalizer LabelNormalizer // optional, nil disables label rewriting
	config     Config
	log        *zap.Logger
}

// New creates the dashboard service. normalizer may be nil.
func New(stats StatsProvider, cities CityLookup, normalizer LabelNormalizer, config Config, log *zap.Logger) *Service {
	if config.PageSize < 1 {
		config.PageSize = 10
	}

	return &Service{
		stats:      stats,
		cities:     cities,
		normalizer: normalizer,
		config:     config,
		log:        log,
	}
}

// PageRequest selects the pagination window per ranked table. Zero values
// mean "first page" and "configured default size".
type PageRequest struct {
	ReferrerPage int
	LocationPage int
	PageSize     int
}

// PagedRanking is one windowed ranked table plus its paging facts.
type PagedRanking struct {
	Entries     []domain.RankedEntry `json:"entries"`
	CurrentPage int                  `json:"current_page"`
	TotalPages  int                  `json:"total_pages"`
	TotalCount  int                  `json:"total_count"`
}

// Dashboard is the full view model handed to the rendering boundary.
type Dashboard struct {
	ShortCode        string               `json:"short_code"`
	OriginalURL      string               `json:"original_url"`
	TotalClicks      int64                `json:"total_clicks"`
	TimeSeries       []domain.TimePoint   `json:"time_series"`
	Referrers        PagedRanking         `json:"referrers"`
	Browsers         []domain.RankedEntry `json:"browsers"`
	OperatingSystems []domain.RankedEntry `json:"operating_systems"`
	Locations        PagedRanking         `json:"locations"`
	Map              []domain.MapRegion   `json:"map"`
	DatasetAvailable bool                 `json:"dataset_available"`
}

// BuildDashboard fetches the snapshot for (shortCode, shareToken) and
// derives every view from it. A missing city dataset degrades the map to
// fill-only regions; it never fails the dashboard.
func (s *Service) BuildDashboard(ctx context.Context, shortCode, bearer, shareToken string, pages PageRequest) (*Dashboard, error) {
	stats, err := s.stats.FetchStats(ctx, shortCode, bearer, shareToken)
	if err != nil {
		return nil, err
	}

	return s.FromSnapshot(ctx, stats, pages), nil
}

// FromSnapshot derives the complete view model from an already-fetched
// snapshot. The streaming boundary uses it to rebuild the dashboard for
// every snapshot the poller delivers.
func (s *Service) FromSnapshot(ctx context.Context, stats *domain.UrlStats, pages PageRequest) *Dashboard {
	views := view.Build(stats)
	if s.normalizer != nil {
		views.Browsers = normalize(views.Browsers, s.normalizer.BrowserLabel)
		views.OperatingSystems = normalize(views.OperatingSystems, s.normalizer.OSLabel)
	}

	datasetAvailable := true
	if _, err := s.cities.Load(ctx); err != nil {
		datasetAvailable = false
		s.log.Warn("city dataset unavailable, rendering without point markers",
			zap.String("short_code", stats.ShortCode),
			zap.Error(err),
		)
	}

	size := pages.PageSize
	if size < 1 {
		size = s.config.PageSize
	}

	return &Dashboard{
		ShortCode:        stats.ShortCode,
		OriginalURL:      stats.OriginalURL,
		TotalClicks:      stats.TotalClicks,
		TimeSeries:       views.TimeSeries,
		Referrers:        paginate(views.Referrers, pages.ReferrerPage, size),
		Browsers:         views.Browsers,
		OperatingSystems: views.OperatingSystems,
		Locations:        paginate(views.Locations, pages.LocationPage, size),
		Map:              s.mapRegions(views.Locations, datasetAvailable),
		DatasetAvailable: datasetAvailable,
	}
}

// CreateShareLink mints a read-only share token for the link. The caller
// must already have passed the owner gate at the boundary.
func (s *Service) CreateShareLink(ctx context.Context, shortCode, bearer string) (string, error) {
	return s.stats.CreateShareLink(ctx, shortCode, bearer)
}

// mapRegions turns the full (unpaginated) location ranking into map-ready
// regions: choropleth fill from the color scale, and a point marker for
// every city-level location the dataset resolves.
func (s *Service) mapRegions(locations []domain.RankedEntry, datasetAvailable bool) []domain.MapRegion {
	scale := view.NewColorScale(s.config.Palette, view.MaxValue(locations))

	regions := make([]domain.MapRegion, 0, len(locations))
	for _, entry := range locations {
		parsed := geo.Parse(entry.Label)
		region := domain.MapRegion{
			Label:     entry.Label,
			Country:   parsed.Country,
			City:      parsed.City,
			Clicks:    entry.Value,
			FillColor: scale.Color(entry.Value),
		}

		if datasetAvailable && parsed.City != "" && parsed.Country != "" {
			if coord, ok := s.cities.Lookup(parsed.Country, parsed.City); ok {
				region.Marker = &domain.MapMarker{
					Coordinate: coord,
					Radius:     scale.Radius(entry.Value),
				}
			}
			// No match is expected, not an error: the location still
			// contributes its country-level fill.
		}

		regions = append(regions, region)
	}

	return regions
}

// normalize rewrites labels and merges buckets that collapse onto the same
// family, then re-ranks the result.
func normalize(entries []domain.RankedEntry, rewrite func(string) string) []domain.RankedEntry {
	merged := make(map[string]int64, len(entries))
	for _, entry := range entries {
		merged[rewrite(entry.Label)] += entry.Value
	}
	return view.Rank(merged)
}

func paginate(entries []domain.RankedEntry, page, size int) PagedRanking {
	if page < 1 {
		page = 1
	}
	state := view.PageState{CurrentPage: page, PageSize: size}

	return PagedRanking{
		Entries:     view.Page(entries, state),
		CurrentPage: page,
		TotalPages:  view.TotalPages(len(entries), size),
		TotalCount:  len(entries),
	}
}
