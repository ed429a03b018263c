package http

import (
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"LinkTelemetry-Dashboard/internal/access"
	"LinkTelemetry-Dashboard/internal/dashboard"
	"LinkTelemetry-Dashboard/internal/domain"
	"LinkTelemetry-Dashboard/internal/statsapi"
)

// StreamDashboard serves the dashboard as server-sent events: the current
// view model immediately, then a fresh one for every polled snapshot until
// the client disconnects. Share-token views get the initial event only,
// since polling is disabled for them
//
//	@Summary		Stream link analytics dashboard updates
//	@Description	Server-sent events: one dashboard view model per refresh. Share-token views receive the initial snapshot only.
//	@Tags			Dashboard
//	@Produce		text/event-stream
//	@Security		BearerAuth
//	@Param			short_code		path		string	true	"Short code of the link"
//	@Param			share_token		query		string	false	"Read-only share token (replaces authentication)"
//	@Param			referrer_page	query		int		false	"Referrer table page, 1-based"
//	@Param			location_page	query		int		false	"Location table page, 1-based"
//	@Param			page_size		query		int		false	"Rows per table page"
//	@Success		200				{object}	dashboard.Dashboard
//	@Failure		401				{object}	ErrorResponse	"Authentication required or share access denied"
//	@Router			/api/links/{short_code}/stream [get]
func (h *DashboardHandler) StreamDashboard(w http.ResponseWriter, r *http.Request, shortCode string) {
	acc := access.FromRequest(r)

	if !access.CanRead(acc) {
		h.writeJSON(w, ErrorResponse{
			Error:         "authentication required",
			LoginRedirect: loginPath,
		}, http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusNotImplemented)
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

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, d); err != nil {
		return
	}
	flusher.Flush()

	// One poller per connection; its lifetime is the request's. Snapshots
	// the writer has not caught up with are dropped in favor of newer ones.
	snapshots := make(chan *domain.UrlStats, 1)
	poller := statsapi.NewPoller(h.fetcher, h.pollerConfig, h.log)
	err = poller.Start(r.Context(), shortCode, acc.BearerToken, acc.ShareToken, func(stats *domain.UrlStats) {
		select {
		case snapshots <- stats:
		default:
		}
	})
	if err != nil {
		h.log.Error("failed to start stats poller", zap.String("short_code", shortCode), zap.Error(err))
		return
	}
	defer poller.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case stats := <-snapshots:
			d := h.service.FromSnapshot(r.Context(), stats, pages)
			if err := writeEvent(w, d); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
