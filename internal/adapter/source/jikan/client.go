package jikan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/anidex/internal/domain"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.jikan.moe/v4"

	defaultResource  = "anime"
	defaultPageSize  = 25
	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 2.0 // requests per second
)

// Options tunes the client. Zero values select the defaults.
type Options struct {
	Resource  string
	PageSize  int
	Timeout   time.Duration
	RateLimit float64 // requests per second, negative disables pacing
}

// Client implements domain.CatalogSource for the Jikan REST API
type Client struct {
	baseURL    string
	resource   string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a new Jikan API client
func NewClient(baseURL string, opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if opts.Resource == "" {
		opts.Resource = defaultResource
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	limit := rate.Limit(opts.RateLimit)
	switch {
	case opts.RateLimit == 0:
		limit = rate.Limit(defaultRateLimit)
	case opts.RateLimit < 0:
		limit = rate.Inf
	}

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		resource: strings.Trim(opts.Resource, "/"),
		pageSize: opts.PageSize,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchTopList returns one page of the top-ranked list
func (c *Client) FetchTopList(ctx context.Context, page int) ([]domain.Anime, domain.Pagination, error) {
	return c.fetchTop(ctx, "", page)
}

// FetchByFilter returns one page of the top list narrowed by a server-side filter
func (c *Client) FetchByFilter(ctx context.Context, filter string, page int) ([]domain.Anime, domain.Pagination, error) {
	if !slices.Contains(domain.CatalogFilters, filter) {
		return nil, domain.Pagination{}, fmt.Errorf("%w: unknown filter %q", domain.ErrRequestFailed, filter)
	}
	return c.fetchTop(ctx, filter, page)
}

func (c *Client) fetchTop(ctx context.Context, filter string, page int) ([]domain.Anime, domain.Pagination, error) {
	if page < 1 {
		page = 1
	}

	query := url.Values{}
	if filter != "" {
		query.Set("filter", filter)
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(c.pageSize))

	body, err := c.doRequest(ctx, "/top/"+c.resource, query)
	if err != nil {
		return nil, domain.Pagination{}, err
	}

	var resp TopResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, domain.Pagination{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if resp.Data == nil {
		return nil, domain.Pagination{}, fmt.Errorf("%w: missing data", domain.ErrMalformedPayload)
	}

	return MapAnimeList(resp.Data), MapPagination(resp.Pagination, page), nil
}

// FetchByID returns the full record for a single entry
func (c *Client) FetchByID(ctx context.Context, id int) (*domain.Anime, error) {
	path := fmt.Sprintf("/%s/%d/full", c.resource, id)
	body, err := c.doRequest(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	var resp DetailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if resp.Data == nil {
		return nil, domain.ErrNotFound
	}

	a := MapAnime(*resp.Data)
	return &a, nil
}

// doRequest performs a paced GET against the API and classifies failures
// into the domain sentinel errors. Requests are never retried.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = reqURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "anidex/1.0")

	c.logger.Debug("jikan request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("jikan request failed", "url", reqURL, "error", err)
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Error("jikan request error", "status", resp.StatusCode, "url", reqURL)
		return nil, fmt.Errorf("%w: HTTP %d", domain.ErrRequestFailed, resp.StatusCode)
	}

	return body, nil
}

// classifyTransportError maps a failed round trip onto the sentinel taxonomy.
// Caller cancellation is passed through untouched.
func classifyTransportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: request timed out", domain.ErrRequestFailed)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %s", domain.ErrNetworkUnreachable, dnsErr.Name)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("%w: %v", domain.ErrNetworkUnreachable, opErr.Err)
	}

	return fmt.Errorf("%w: %v", domain.ErrRequestFailed, err)
}
