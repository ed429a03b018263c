package statsapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"LinkTelemetry-Dashboard/internal/domain"
)

var (
	// ErrDataUnavailable wraps stats fetch failures. The boundary surfaces
	// it as "failed to load statistics"; stale data is never shown instead.
	ErrDataUnavailable = errors.New("failed to load statistics")
	// ErrLinkNotFound means the backend has no link for the short code.
	ErrLinkNotFound = errors.New("link not found")
)

// UnauthorizedError reports an upstream 401 and whether the request was
// share-scoped. Owner-scoped failures trigger re-authentication at the
// boundary; share-scoped failures surface a local access-denied state and
// must never redirect to login.
type UnauthorizedError struct {
	ShareScoped bool
}

func (e *UnauthorizedError) Error() string {
	if e.ShareScoped {
		return "share link access denied"
	}
	return "authentication required"
}

// ShareLinkError carries the upstream status and message from a failed
// share link creation so the initiating user sees the real cause.
type ShareLinkError struct {
	StatusCode int
	Message    string
}

func (e *ShareLinkError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("failed to create share link: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("failed to create share link (status %d)", e.StatusCode)
}

// Config holds configuration for the stats API client.
type Config struct {
	BaseURL string        // Base URL of the shortener backend API
	Timeout time.Duration // Per-request timeout
}

// Client talks to the shortener backend's stats API. Concurrent fetches for
// the same (short code, share token) key share a single network call, and
// stats reads run through a circuit breaker so a dead backend trips fast
// during polling instead of stacking up timeouts.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*domain.UrlStats]
	group   singleflight.Group
	log     *zap.Logger
}

// New creates a stats API client.
func New(cfg Config, log *zap.Logger) *Client {
	settings := gobreaker.Settings{
		Name:    "stats-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Authorization and not-found responses are answers, not outages.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var ue *UnauthorizedError
			return errors.As(err, &ue) || errors.Is(err, ErrLinkNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("stats API circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[*domain.UrlStats](settings),
		log:     log,
	}
}

// FetchStats retrieves the aggregated click snapshot for one link. With a
// share token the request is sent unauthenticated and the token is passed
// as a query parameter; otherwise the bearer credential is attached. The
// two are never combined.
func (c *Client) FetchStats(ctx context.Context, shortCode, bearer, shareToken string) (*domain.UrlStats, error) {
	// Flights are keyed by the effective credential. Coalescing across
	// different bearers would hand one caller a response the backend never
	// authorized for their token; only the backend can judge a credential.
	key := "owner\x00" + shortCode + "\x00" + bearer
	if shareToken != "" {
		key = "share\x00" + shortCode + "\x00" + shareToken
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		return c.breaker.Execute(func() (*domain.UrlStats, error) {
			return c.fetchStats(ctx, shortCode, bearer, shareToken)
		})
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.Debug("stats fetch deduplicated", zap.String("short_code", shortCode))
	}

	return v.(*domain.UrlStats), nil
}

func (c *Client) fetchStats(ctx context.Context, shortCode, bearer, shareToken string) (*domain.UrlStats, error) {
	endpoint := fmt.Sprintf("%s/urls/%s/stats", c.baseURL, url.PathEscape(shortCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	if shareToken != "" {
		q := req.URL.Query()
		q.Set("share_token", shareToken)
		req.URL.RawQuery = q.Encode()
	} else if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var stats domain.UrlStats
		if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
			return nil, fmt.Errorf("%w: invalid response: %v", ErrDataUnavailable, err)
		}
		return &stats, nil
	case http.StatusUnauthorized:
		return nil, &UnauthorizedError{ShareScoped: shareToken != ""}
	case http.StatusNotFound:
		return nil, ErrLinkNotFound
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrDataUnavailable, resp.StatusCode)
	}
}

// CreateShareLink asks the backend to mint a new share token for the link.
// Owner-only: the bearer credential is always attached.
func (c *Client) CreateShareLink(ctx context.Context, shortCode, bearer string) (string, error) {
	endpoint := fmt.Sprintf("%s/urls/%s/share", c.baseURL, url.PathEscape(shortCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build share link request: %w", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to create share link: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", &UnauthorizedError{}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &ShareLinkError{
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(resp.Body),
		}
	}

	var payload struct {
		ShareToken string `json:"share_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode share link response: %w", err)
	}
	if payload.ShareToken == "" {
		return "", &ShareLinkError{StatusCode: resp.StatusCode, Message: "empty share token in response"}
	}

	c.log.Info("share link created", zap.String("short_code", shortCode))
	return payload.ShareToken, nil
}

// upstreamMessage pulls a human-readable message out of an error body,
// tolerating both {"detail": ...} and {"error": ...} shapes.
func upstreamMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	return payload.Error
}
