package source

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"

	"github.com/mmcdole/anidex/internal/adapter"
	"github.com/mmcdole/anidex/internal/adapter/source/jikan"
	"github.com/mmcdole/anidex/internal/domain"
)

// CatalogSource is what the sync core needs from a remote backend, plus the
// address the cache is partitioned by.
type CatalogSource interface {
	domain.CatalogSource
	BaseURL() string
}

// NewClientFromConfig creates a CatalogSource from the application config
func NewClientFromConfig(cfg *adapter.Config, logger *slog.Logger) (CatalogSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("API base URL is required")
	}

	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", cfg.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported API scheme: %s", u.Scheme)
	}

	return jikan.NewClient(cfg.API.BaseURL, jikan.Options{
		Resource:  cfg.API.Resource,
		PageSize:  cfg.Sync.PageSize,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
	}, logger), nil
}

// ProbeAddress returns the host:port the connectivity prober dials for a base URL
func ProbeAddress(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid API base URL %q", baseURL)
	}
	if u.Port() != "" {
		return u.Host, nil
	}
	port := "443"
	if u.Scheme == "http" {
		port = "80"
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
