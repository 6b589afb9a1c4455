package travel

import (
	"sort"
	"time"

	"github.com/kjstillabower/weather-advisor-service/internal/models"
)

// RecommendedDays is how many top-scoring days are flagged.
const RecommendedDays = 2

const defaultIcon = "01d"

// RankedDay is a forecast day with its score and reason keys.
type RankedDay struct {
	Date         time.Time `json:"date"`
	Score        float64   `json:"score"`
	Scores       DayScore  `json:"scores"`
	Reasons      []string  `json:"reasons"`
	Recommended  bool      `json:"recommended"`
	TempAvg      float64   `json:"tempAvg"`
	PopMax       float64   `json:"popMax"`
	WindSpeedAvg float64   `json:"windSpeedAvg"`
	HumidityAvg  float64   `json:"humidityAvg"`
	Weather      string    `json:"weather"`
	Icon         string    `json:"icon"`
}

// Reasons derives the qualitative tags for a scored day.
func Reasons(c Conditions, s DayScore) []string {
	reasons := []string{}

	switch {
	case s.TempScore >= 34:
		reasons = append(reasons, "travel.reason_temp_good")
	case c.TempAvg > 30:
		reasons = append(reasons, "travel.reason_temp_hot")
	case c.TempAvg < 15:
		reasons = append(reasons, "travel.reason_temp_cold")
	}

	switch {
	case s.RainScore >= 20:
		reasons = append(reasons, "travel.reason_rain_low")
	case c.PopMax >= 60:
		reasons = append(reasons, "travel.reason_rain_high")
	}

	switch {
	case s.WindScore >= 12:
		reasons = append(reasons, "travel.reason_wind_calm")
	case c.WindSpeedAvg > 8:
		reasons = append(reasons, "travel.reason_wind_strong")
	}

	if s.HumidityScore >= 16 {
		reasons = append(reasons, "travel.reason_humidity_good")
	}
	return reasons
}

// Recommend scores each day, flags the top RecommendedDays by score
// (earlier days win ties) and returns the days in date order.
func Recommend(daily []models.DailySummary) []RankedDay {
	out := make([]RankedDay, 0, len(daily))
	for _, d := range daily {
		c := Conditions{
			TempAvg:      d.TempAvg,
			PopMax:       d.PopMax,
			WindSpeedAvg: d.WindSpeedAvg,
			HumidityAvg:  d.HumidityAvg,
		}
		s := Score(c)
		icon := d.Icon
		if icon == "" {
			icon = defaultIcon
		}
		out = append(out, RankedDay{
			Date:         d.Date,
			Score:        s.Total,
			Scores:       s,
			Reasons:      Reasons(c, s),
			TempAvg:      d.TempAvg,
			PopMax:       d.PopMax,
			WindSpeedAvg: d.WindSpeedAvg,
			HumidityAvg:  d.HumidityAvg,
			Weather:      d.Weather,
			Icon:         icon,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := 0; i < len(out) && i < RecommendedDays; i++ {
		out[i].Recommended = true
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
