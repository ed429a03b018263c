package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"LinkTelemetry-Dashboard/internal/access"
	"LinkTelemetry-Dashboard/internal/dashboard"
	"LinkTelemetry-Dashboard/internal/domain"
	"LinkTelemetry-Dashboard/internal/statsapi"
)

// loginPath is where the host sends owner-scoped callers whose session is
// missing or expired. Share-scoped callers are never sent there.
const loginPath = "/login"

// DashboardService is the orchestration surface the boundary exposes.
type DashboardService interface {
	BuildDashboard(ctx context.Context, shortCode, bearer, shareToken string, pages dashboard.PageRequest) (*dashboard.Dashboard, error)
	FromSnapshot(ctx context.Context, stats *domain.UrlStats, pages dashboard.PageRequest) *dashboard.Dashboard
	CreateShareLink(ctx context.Context, shortCode, bearer string) (string, error)
}

// DashboardHandler serves the per-link analytics view model.
type DashboardHandler struct {
	service      DashboardService
	fetcher      statsapi.StatsFetcher
	pollerConfig statsapi.PollerConfig
	log          *zap.Logger
}

// NewDashboardHandler creates the handler. fetcher and pollerConfig drive
// the per-connection refresh of the streaming endpoint.
func NewDashboardHandler(service DashboardService, fetcher statsapi.StatsFetcher, pollerConfig statsapi.PollerConfig, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		fetcher:      fetcher,
		pollerConfig: pollerConfig,
		log:          log,
	}
}

// ErrorResponse is the JSON error payload. LoginRedirect is set only on
// owner-scoped authentication failures; the host must not redirect when it
// is absent.
type ErrorResponse struct {
	Error         string `json:"error"`
	LoginRedirect string `json:"login_redirect,omitempty"`
}

// ShareLinkResponse carries a freshly minted share token.
type ShareLinkResponse struct {
	ShareToken string `json:"share_token"`
}

// GetDashboard returns the chart-ready analytics view model for one link
//
//	@Summary		Get link analytics dashboard
//	@Description	Full view model for one short link: time series, ranked breakdowns, map regions and pagination windows
//	@Tags			Dashboard
//	@Produce		json
//	@Security		BearerAuth
//	@Param			short_code		path		string	true	"Short code of the link"
//	@Param			share_token		query		string	false	"Read-only share token (replaces authentication)"
//	@Param			referrer_page	query		int		false	"Referrer table page, 1-based"
//	@Param			location_page	query		int		false	"Location table page, 1-based"
//	@Param			page_size		query		int		false	"Rows per table page"
//	@Success		200				{object}	dashboard.Dashboard
//	@Failure		401				{object}	ErrorResponse	"Authentication required or share access denied"
//	@Failure		404				{object}	ErrorResponse	"Link not found"
//	@Failure		502				{object}	ErrorResponse	"Failed to load statistics"
//	@Router			/api/links/{short_code}/dashboard [get]
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request, shortCode string) {
	acc := access.FromRequest(r)

	if !access.CanRead(acc) {
		// No session and no share token: an owner-scoped request that must
		// re-authenticate.
		h.writeJSON(w, ErrorResponse{
			Error:         "authentication required",
			LoginRedirect: loginPath,
		}, http.StatusUnauthorized)
		return
	}

	pages := dashboard.PageRequest{
		ReferrerPage: queryInt(r, "referrer_page"),
		LocationPage: queryInt(r, "location_page"),
		PageSize:     queryInt(r, "page_size"),
	}

	d, err := h.service.BuildDashboard(r.Context(), shortCode, acc.BearerToken, acc.ShareToken, pages)
	if err != nil {
		h.writeFetchError(w, err, shortCode)
		return
	}

	h.writeJSON(w, d, http.StatusOK)
}

// CreateShareLink mints a read-only share token for the link
//
//	@Summary		Create a share link
//	@Description	Generates a token granting read-only access to this link's analytics. Owner only.
//	@Tags			Dashboard
//	@Produce		json
//	@Security		BearerAuth
//	@Param			short_code	path		string	true	"Short code of the link"
//	@Success		201			{object}	ShareLinkResponse
//	@Failure		401			{object}	ErrorResponse	"Authentication required"
//	@Failure		403			{object}	ErrorResponse	"Share token holders cannot create share links"
//	@Router			/api/links/{short_code}/share [post]
func (h *DashboardHandler) CreateShareLink(w http.ResponseWriter, r *http.Request, shortCode string) {
	acc := access.FromRequest(r)

	if !access.CanMutate(acc) {
		if acc.ShareScoped() {
			// A share token is read-only; deny locally, never bounce the
			// holder through a login flow.
			h.writeJSON(w, ErrorResponse{Error: "share links are read-only"}, http.StatusForbidden)
			return
		}
		h.writeJSON(w, ErrorResponse{
			Error:         "authentication required",
			LoginRedirect: loginPath,
		}, http.StatusUnauthorized)
		return
	}

	token, err := h.service.CreateShareLink(r.Context(), shortCode, acc.BearerToken)
	if err != nil {
		h.writeShareError(w, err, shortCode)
		return
	}

	h.writeJSON(w, ShareLinkResponse{ShareToken: token}, http.StatusCreated)
}

// writeFetchError maps stats fetch failures onto the boundary contract:
// owner-scoped 401s carry the login redirect, share-scoped 401s surface as
// a plain denial, everything else is an explicit "failed to load" state.
func (h *DashboardHandler) writeFetchError(w http.ResponseWriter, err error, shortCode string) {
	var unauthorized *statsapi.UnauthorizedError
	switch {
	case errors.As(err, &unauthorized):
		if unauthorized.ShareScoped {
			h.writeJSON(w, ErrorResponse{Error: "access denied"}, http.StatusUnauthorized)
			return
		}
		h.writeJSON(w, ErrorResponse{
			Error:         "authentication required",
			LoginRedirect: loginPath,
		}, http.StatusUnauthorized)
	case errors.Is(err, statsapi.ErrLinkNotFound):
		h.writeJSON(w, ErrorResponse{Error: "link not found"}, http.StatusNotFound)
	default:
		h.log.Error("failed to build dashboard", zap.String("short_code", shortCode), zap.Error(err))
		h.writeJSON(w, ErrorResponse{Error: "failed to load statistics"}, http.StatusBadGateway)
	}
}

// writeShareError surfaces share link creation failures with the upstream
// status and message when available, a generic message otherwise.
func (h *DashboardHandler) writeShareError(w http.ResponseWriter, err error, shortCode string) {
	var unauthorized *statsapi.UnauthorizedError
	if errors.As(err, &unauthorized) {
		h.writeJSON(w, ErrorResponse{
			Error:         "authentication required",
			LoginRedirect: loginPath,
		}, http.StatusUnauthorized)
		return
	}

	var shareErr *statsapi.ShareLinkError
	if errors.As(err, &shareErr) {
		h.log.Warn("share link creation rejected upstream",
			zap.String("short_code", shortCode),
			zap.Int("status", shareErr.StatusCode),
			zap.String("message", shareErr.Message),
		)
		message := shareErr.Message
		if message == "" {
			message = "failed to create share link"
		}
		status := shareErr.StatusCode
		// A malformed success (e.g. 200 with an empty token) must not reach
		// the host as a success status.
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		h.writeJSON(w, ErrorResponse{Error: message}, status)
		return
	}

	h.log.Error("failed to create share link", zap.String("short_code", shortCode), zap.Error(err))
	h.writeJSON(w, ErrorResponse{Error: "failed to create share link"}, http.StatusBadGateway)
}

func (h *DashboardHandler) writeJSON(w http.ResponseWriter, payload interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("failed to encode response", zap.Error(err))
	}
}

func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}
