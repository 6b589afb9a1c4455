package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kjstillabower/weather-advisor-service/internal/models"
)

// DefaultMOENVURL is the nationwide real-time AQI dataset.
const DefaultMOENVURL = "https://data.moenv.gov.tw/api/v2/aqx_p_432"

// MOENVClient reads station AQI records from Taiwan's Ministry of Environment open data API.
type MOENVClient struct {
	upstream
	apiKey string
	url    string
}

// NewMOENVClient creates a client for the aqx_p_432 dataset at datasetURL.
func NewMOENVClient(apiKey, datasetURL string, timeout time.Duration) (*MOENVClient, error) {
	if err := validateKey(apiKey); err != nil {
		return nil, err
	}
	if datasetURL == "" {
		datasetURL = DefaultMOENVURL
	}
	return &MOENVClient{
		upstream: newUpstream(APIMOENV, timeout),
		apiKey:   apiKey,
		url:      datasetURL,
	}, nil
}

// flexString accepts a JSON string, number or null.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(data)
	}
	return nil
}

type moenvRecord struct {
	County    flexString `json:"county"`
	SiteName  flexString `json:"sitename"`
	AQI       flexString `json:"aqi"`
	PM25      flexString `json:"pm2.5"`
	PM25Alt   flexString `json:"pm25"`
	PM10      flexString `json:"pm10"`
	O3        flexString `json:"o3"`
	Pollutant flexString `json:"pollutant"`
	Status    flexString `json:"status"`
}

// moenvBody is either a bare record list or an object with a records field.
type moenvBody struct {
	records []moenvRecord
}

func (b *moenvBody) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &b.records)
	}
	var wrapped struct {
		Records []moenvRecord `json:"records"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	b.records = wrapped.Records
	return nil
}

// FetchAQI returns every station record in the latest import.
func (c *MOENVClient) FetchAQI(ctx context.Context) ([]models.AQIRecord, error) {
	var body moenvBody
	if err := c.call(ctx, c.request, &body); err != nil {
		return nil, err
	}
	if len(body.records) == 0 {
		return nil, fmt.Errorf("aqi records: %w", ErrEmptyResponse)
	}

	out := make([]models.AQIRecord, 0, len(body.records))
	for _, r := range body.records {
		pm25 := r.PM25
		if pm25 == "" {
			pm25 = r.PM25Alt
		}
		out = append(out, models.AQIRecord{
			County:    string(r.County),
			SiteName:  string(r.SiteName),
			AQI:       string(r.AQI),
			PM25:      string(pm25),
			PM10:      string(r.PM10),
			O3:        string(r.O3),
			Pollutant: string(r.Pollutant),
			Status:    string(r.Status),
		})
	}
	return out, nil
}

func (c *MOENVClient) request(ctx context.Context) (*http.Request, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("limit", "1000")
	params.Set("sort", "ImportDate desc")
	params.Set("format", "JSON")
	u.RawQuery = params.Encode()
	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}
