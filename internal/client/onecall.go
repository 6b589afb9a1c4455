package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kjstillabower/weather-advisor-service/internal/models"
)

// OneCallClient reads official alerts and the UV index from the One Call 3.0 API.
// Calls are never retried.
type OneCallClient struct {
	upstream
	apiKey  string
	baseURL string
}

// NewOneCallClient creates a client for baseURL (e.g. https://api.openweathermap.org/data/3.0).
func NewOneCallClient(apiKey, baseURL string, timeout time.Duration) (*OneCallClient, error) {
	if err := validateKey(apiKey); err != nil {
		return nil, err
	}
	return &OneCallClient{
		upstream: newUpstream(APIOneCall, timeout),
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

type oneCallResponse struct {
	Current struct {
		UVI float64 `json:"uvi"`
	} `json:"current"`
	Alerts []struct {
		SenderName  string `json:"sender_name"`
		Event       string `json:"event"`
		Start       int64  `json:"start"`
		End         int64  `json:"end"`
		Description string `json:"description"`
	} `json:"alerts"`
}

// Snapshot returns the current UV index and any active alerts at lat, lon.
func (c *OneCallClient) Snapshot(ctx context.Context, lat, lon float64) (models.OneCallSnapshot, error) {
	var resp oneCallResponse
	if err := c.call(ctx, c.request(lat, lon), &resp); err != nil {
		return models.OneCallSnapshot{}, err
	}
	snap := models.OneCallSnapshot{
		UVI:    resp.Current.UVI,
		Alerts: make([]models.OfficialAlert, 0, len(resp.Alerts)),
	}
	for _, a := range resp.Alerts {
		snap.Alerts = append(snap.Alerts, models.OfficialAlert{
			SenderName:  a.SenderName,
			Event:       a.Event,
			Description: a.Description,
			Start:       unixOrZero(a.Start),
			End:         unixOrZero(a.End),
		})
	}
	return snap, nil
}

// FetchOfficialAlerts returns the alerts active at lat, lon.
func (c *OneCallClient) FetchOfficialAlerts(ctx context.Context, lat, lon float64) ([]models.OfficialAlert, error) {
	snap, err := c.Snapshot(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	return snap.Alerts, nil
}

// UVIndex returns the current UV index at lat, lon.
func (c *OneCallClient) UVIndex(ctx context.Context, lat, lon float64) (float64, error) {
	snap, err := c.Snapshot(ctx, lat, lon)
	if err != nil {
		return 0, err
	}
	return snap.UVI, nil
}

func (c *OneCallClient) request(lat, lon float64) requestBuilder {
	return func(ctx context.Context) (*http.Request, error) {
		u, err := url.Parse(c.baseURL + "/onecall")
		if err != nil {
			return nil, fmt.Errorf("invalid API URL: %w", err)
		}
		params := url.Values{}
		params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
		params.Set("appid", c.apiKey)
		params.Set("units", "metric")
		params.Set("exclude", "minutely,hourly,daily")
		u.RawQuery = params.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	}
}
