// Package openmeteo holds the request plumbing and response shapes shared by
// the Open-Meteo forecast and air quality clients.
package openmeteo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/weatherdash/weatherdash/internal/geo"
	"github.com/weatherdash/weatherdash/internal/provider/resilience"
	"github.com/weatherdash/weatherdash/internal/timeseries"
)

// Columns is a columnar block: a "time" array plus one value array per variable.
type Columns struct {
	Time   []string
	Values map[string]timeseries.Series
}

// UnmarshalJSON decodes every non-time array as a nullable float series.
func (c *Columns) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	c.Values = make(map[string]timeseries.Series, len(raw))
	for key, msg := range raw {
		if key == "time" {
			if err := json.Unmarshal(msg, &c.Time); err != nil {
				return fmt.Errorf("decoding time column: %w", err)
			}
			continue
		}
		var values []*float64
		if err := json.Unmarshal(msg, &values); err != nil {
			// Non-numeric columns are not used.
			continue
		}
		c.Values[key] = timeseries.Series(values)
	}
	return nil
}

// Get returns the series for a variable, or an empty series.
func (c Columns) Get(name string) timeseries.Series {
	if s, ok := c.Values[name]; ok {
		return s
	}
	return timeseries.Series{}
}

// Current is a "current" block. Numeric variables are kept, plus its timestamp.
type Current struct {
	Time   string
	Values map[string]*float64
}

// UnmarshalJSON decodes numeric entries and the time field.
func (c *Current) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	c.Values = make(map[string]*float64, len(raw))
	for key, msg := range raw {
		if key == "time" {
			_ = json.Unmarshal(msg, &c.Time)
			continue
		}
		var v *float64
		if err := json.Unmarshal(msg, &v); err != nil {
			continue
		}
		c.Values[key] = v
	}
	return nil
}

// Get returns a numeric value, or nil.
func (c Current) Get(name string) *float64 {
	return c.Values[name]
}

// errorResponse is the body Open-Meteo returns with 4xx statuses.
type errorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// LocationParams returns latitude/longitude query values.
func LocationParams(coords geo.Coordinates) url.Values {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(coords.Lat, 'f', 6, 64))
	params.Set("longitude", strconv.FormatFloat(coords.Lng, 'f', 6, 64))
	return params
}

// Join joins variable names for a list parameter.
func Join(names []string) string {
	return strings.Join(names, ",")
}

// GetJSON performs a GET against baseURL with params and decodes the body into out.
func GetJSON(ctx context.Context, client *resilience.Client, baseURL string, params url.Values, out any) error {
	reqURL := baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		if json.Unmarshal(buf.Bytes(), &apiErr) == nil && apiErr.Reason != "" {
			return fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode, apiErr.Reason)
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
