package models

import "time"

// OfficialAlert is a government-issued warning relayed by the One Call API.
type OfficialAlert struct {
	SenderName  string    `json:"senderName"`
	Event       string    `json:"event"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// OneCallSnapshot is the subset of a One Call response the service uses.
type OneCallSnapshot struct {
	UVI    float64         `json:"uvi"`
	Alerts []OfficialAlert `json:"alerts"`
}

// AQIRecord is one monitoring-station row from the MOENV aqx_p_432 dataset.
// Numeric columns stay as the raw strings the dataset publishes.
type AQIRecord struct {
	County    string `json:"county"`
	SiteName  string `json:"sitename"`
	AQI       string `json:"aqi"`
	PM25      string `json:"pm2.5"`
	PM10      string `json:"pm10"`
	O3        string `json:"o3"`
	Pollutant string `json:"pollutant"`
	Status    string `json:"status"`
}
