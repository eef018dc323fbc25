// Package noaa polls NOAA CO-OPS stations for current water and wind
// observations, turning them into readings for the beaches mapped to
// each station.
package noaa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/beach-status-engine/internal/domain"
)

const defaultBaseURL = "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"

// knotsToMph converts CO-OPS wind speeds (knots under english units).
const knotsToMph = 1.15078

// Observation is the latest set of measurements reported by one station.
type Observation struct {
	StationID  string
	ObservedAt time.Time
	Values     map[domain.Metric]float64
}

// Client fetches current observations from the CO-OPS data API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a CO-OPS client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// LatestObservations queries the station's current water level, water
// temperature, and wind. Products the station does not carry are left
// out of the result; only a station reporting nothing at all is an
// error.
func (c *Client) LatestObservations(ctx context.Context, stationID string) (Observation, error) {
	obs := Observation{StationID: stationID, Values: make(map[domain.Metric]float64)}

	waterLevel, at, err := c.fetchLatest(ctx, stationID, "water_level")
	if err != nil {
		c.logger.Debug("station water level unavailable", "station", stationID, "error", err)
	} else {
		obs.Values[domain.MetricTideFt] = waterLevel
		obs.ObservedAt = at
	}

	waterTemp, at, err := c.fetchLatest(ctx, stationID, "water_temperature")
	if err != nil {
		c.logger.Debug("station water temperature unavailable", "station", stationID, "error", err)
	} else {
		obs.Values[domain.MetricWaterTempF] = waterTemp
		if at.After(obs.ObservedAt) {
			obs.ObservedAt = at
		}
	}

	if err := c.fetchWind(ctx, stationID, &obs); err != nil {
		c.logger.Debug("station wind unavailable", "station", stationID, "error", err)
	}

	if len(obs.Values) == 0 {
		return Observation{}, fmt.Errorf("station %s reported no observations", stationID)
	}
	return obs, nil
}

// fetchLatest fetches the newest datapoint of a single-valued product.
func (c *Client) fetchLatest(ctx context.Context, stationID, product string) (float64, time.Time, error) {
	var resp dataResponse
	if err := c.doRequest(ctx, stationID, product, &resp); err != nil {
		return 0, time.Time{}, err
	}
	if len(resp.Data) == 0 {
		return 0, time.Time{}, fmt.Errorf("%s: empty response", product)
	}

	point := resp.Data[0]
	value, err := strconv.ParseFloat(point.Value, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%s: bad value %q", product, point.Value)
	}
	at, err := parseObservationTime(point.Time)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%s: %w", product, err)
	}
	return value, at, nil
}

func (c *Client) fetchWind(ctx context.Context, stationID string, obs *Observation) error {
	var resp windResponse
	if err := c.doRequest(ctx, stationID, "wind", &resp); err != nil {
		return err
	}
	if len(resp.Data) == 0 {
		return fmt.Errorf("wind: empty response")
	}

	point := resp.Data[0]
	speed, err := strconv.ParseFloat(point.Speed, 64)
	if err != nil {
		return fmt.Errorf("wind: bad speed %q", point.Speed)
	}
	obs.Values[domain.MetricWindMph] = speed * knotsToMph

	if dir, err := strconv.ParseFloat(point.Direction, 64); err == nil {
		obs.Values[domain.MetricWindDirDeg] = dir
	}
	if at, err := parseObservationTime(point.Time); err == nil && at.After(obs.ObservedAt) {
		obs.ObservedAt = at
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, stationID, product string, out any) error {
	params := url.Values{
		"station":   {stationID},
		"product":   {product},
		"datum":     {"MLLW"},
		"units":     {"english"},
		"time_zone": {"gmt"},
		"format":    {"json"},
		"date":      {"latest"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", product, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("CO-OPS API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", product, err)
	}
	return nil
}

// parseObservationTime parses the API's "2006-01-02 15:04" GMT stamps.
func parseObservationTime(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q", raw)
	}
	return t.UTC(), nil
}

// CO-OPS API response types.

type dataResponse struct {
	Data []dataPoint `json:"data"`
}

type dataPoint struct {
	Time  string `json:"t"`
	Value string `json:"v"`
}

type windResponse struct {
	Data []windPoint `json:"data"`
}

type windPoint struct {
	Time      string `json:"t"`
	Speed     string `json:"s"`
	Direction string `json:"d"`
}
