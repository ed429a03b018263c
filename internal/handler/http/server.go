package http

import (
	"net/http"
	"strings"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"LinkTelemetry-Dashboard/internal/statsapi"
)

// Server is the JSON boundary the rendering host talks to.
type Server struct {
	dashboardHandler *DashboardHandler
	healthHandler    *HealthHandler
	log              *zap.Logger
}

// NewServer creates the boundary HTTP server.
func NewServer(service DashboardService, fetcher statsapi.StatsFetcher, pollerConfig statsapi.PollerConfig, dataset DatasetStatus, log *zap.Logger) *Server {
	return &Server{
		dashboardHandler: NewDashboardHandler(service, fetcher, pollerConfig, log),
		healthHandler:    NewHealthHandler(dataset, log),
		log:              log,
	}
}

// SetupRoutes configures the route table.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Health checks (no authentication)
	mux.HandleFunc("/health", s.healthHandler.Health)
	mux.HandleFunc("/ready", s.healthHandler.Ready)

	// Swagger documentation
	mux.Handle("/api/v1/", httpSwagger.WrapHandler)

	// Link analytics endpoints; access gating happens per-request inside
	// the handler because share tokens arrive as query parameters.
	mux.HandleFunc("/api/links/", s.withCORS(s.handleLinksAPI))

	return mux
}

// handleLinksAPI routes /api/links/{short_code}/{action}.
func (s *Server) handleLinksAPI(w http.ResponseWriter, r *http.Request) {
	shortCode, action, ok := splitLinkPath(r.URL.Path)
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	switch {
	case action == "dashboard" && r.Method == http.MethodGet:
		s.dashboardHandler.GetDashboard(w, r, shortCode)
	case action == "stream" && r.Method == http.MethodGet:
		s.dashboardHandler.StreamDashboard(w, r, shortCode)
	case action == "share" && r.Method == http.MethodPost:
		s.dashboardHandler.CreateShareLink(w, r, shortCode)
	case action == "dashboard" || action == "stream" || action == "share":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// splitLinkPath extracts the short code and action from
// /api/links/{short_code}/{action}.
func splitLinkPath(path string) (shortCode, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 || parts[0] != "api" || parts[1] != "links" || parts[2] == "" {
		return "", "", false
	}
	return parts[2], parts[3], true
}

// withCORS adds CORS headers for the rendering host.
func (s *Server) withCORS(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowedOrigins := []string{
			"http://localhost:3000", // dev server
			"http://127.0.0.1:3000",
			"http://localhost:8080", // production build
			"http://127.0.0.1:8080",
		}

		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		handler.ServeHTTP(w, r)
	}
}
