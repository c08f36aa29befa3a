// Package nominatim implements geocoding against the OpenStreetMap Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/geocode"
	"github.com/weatherdash/weatherdash/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public Nominatim endpoint.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent identifies the application as the usage policy requires.
	DefaultUserAgent = "weatherdash/1.0"
)

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, a resilient client limited to RequestsPerSecond is created.
	HTTPClient *resilience.Client

	// UserAgent is sent with every request (default: DefaultUserAgent).
	UserAgent string

	// RequestsPerSecond limits the default client (default: 1).
	RequestsPerSecond float64

	// CacheTTL is how long lookups are cached (default: 10 minutes).
	CacheTTL time.Duration

	// Registry receives health updates for the default client (optional).
	Registry *resilience.Registry

	Logger zerolog.Logger
}

// Client is a Nominatim client.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	cache      *cache.Cache
	logger     zerolog.Logger
}

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName, resilience.RoleLocator)
		clientCfg.Registry = cfg.Registry
		clientCfg.RequestsPerSecond = cfg.RequestsPerSecond
		if clientCfg.RequestsPerSecond == 0 {
			clientCfg.RequestsPerSecond = 1
		}
		clientCfg.UserAgent = cfg.UserAgent
		if clientCfg.UserAgent == "" {
			clientCfg.UserAgent = DefaultUserAgent
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		cache:      cache.New(cacheTTL, 2*cacheTTL),
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Reverse returns the address at coords.
func (c *Client) Reverse(ctx context.Context, coords geo.Coordinates) (*geocode.Result, error) {
	cacheKey := fmt.Sprintf("reverse:%.5f,%.5f", coords.Lat, coords.Lng)
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(*geocode.Result), nil
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coords.Lng, 'f', -1, 64))
	params.Set("addressdetails", "1")

	var resp place
	if err := c.get(ctx, "/reverse", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", geocode.ErrNotFound, resp.Error)
	}

	res, err := resp.toResult()
	if err != nil {
		// Reverse lookups label the requested point.
		res = &geocode.Result{Address: resp.Address, DisplayName: resp.DisplayName}
	}
	res.Coords = coords

	c.cache.Set(cacheKey, res, cache.DefaultExpiration)
	return res, nil
}

// Search returns the best match for query.
func (c *Client) Search(ctx context.Context, query string) (*geocode.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, geocode.ErrEmptyQuery
	}

	cacheKey := "search:" + strings.ToLower(query)
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(*geocode.Result), nil
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	params.Set("limit", "1")
	params.Set("addressdetails", "1")

	var resp []place
	if err := c.get(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, geocode.ErrNotFound
	}

	res, err := resp[0].toResult()
	if err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, res, cache.DefaultExpiration)
	return res, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Nominatim API response types

type place struct {
	Lat         string          `json:"lat"`
	Lon         string          `json:"lon"`
	DisplayName string          `json:"display_name"`
	Address     geocode.Address `json:"address"`
	Error       string          `json:"error"`
}

func (p place) toResult() (*geocode.Result, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing lat %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing lon %q: %w", p.Lon, err)
	}
	return &geocode.Result{
		Coords:      geo.Coordinates{Lat: lat, Lng: lon},
		Address:     p.Address,
		DisplayName: p.DisplayName,
	}, nil
}
