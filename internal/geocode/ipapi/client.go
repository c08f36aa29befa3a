// Package ipapi locates the caller by IP address using ipapi.co.
package ipapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/geocode"
	"github.com/weatherdash/weatherdash/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "ipapi"

	// DefaultURL is the ipapi.co JSON endpoint.
	DefaultURL = "https://ipapi.co/json/"

	fallbackCityName = "Your Location"
)

// ClientConfig holds configuration for the ipapi client.
type ClientConfig struct {
	// URL is the lookup endpoint (optional, defaults to DefaultURL).
	URL string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	Logger zerolog.Logger
}

// Client is an ipapi.co client.
type Client struct {
	url        string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new ipapi client.
func NewClient(cfg ClientConfig) *Client {
	u := cfg.URL
	if u == "" {
		u = DefaultURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName, resilience.RoleLocator))
	}

	return &Client{url: u, httpClient: httpClient, logger: cfg.Logger}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Locate returns the approximate place of the calling IP.
func (c *Client) Locate(ctx context.Context) (*geo.Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body locateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if body.Error {
		return nil, fmt.Errorf("%w: %s", geocode.ErrNotFound, body.Reason)
	}
	if body.Latitude == nil || body.Longitude == nil {
		return nil, geocode.ErrNotFound
	}

	return &geo.Place{
		Coords:  geo.Coordinates{Lat: *body.Latitude, Lng: *body.Longitude},
		Info:    body.info(),
		IPBased: true,
	}, nil
}

// ipapi.co response types

type locateResponse struct {
	City        string   `json:"city"`
	Region      string   `json:"region"`
	CountryName string   `json:"country_name"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
}

func (r locateResponse) info() geo.LocationInfo {
	city := r.City
	if city == "" {
		city = r.Region
	}
	if city == "" {
		city = fallbackCityName
	}
	full := city
	if r.CountryName != "" {
		full = city + ", " + r.CountryName
	}
	return geo.LocationInfo{CityName: city, FullName: full}
}
