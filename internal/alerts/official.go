package alerts

import (
	"context"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
	"github.com/kjstillabower/weather-advisor-service/internal/models"
	"github.com/kjstillabower/weather-advisor-service/internal/threshold"
)

// OfficialSource fetches government warnings for a coordinate.
type OfficialSource interface {
	FetchOfficialAlerts(ctx context.Context, lat, lon float64) ([]models.OfficialAlert, error)
}

// Official queries src once and converts each warning into a DANGER alert.
// Any failure, including a nil source, yields an empty slice.
func Official(ctx context.Context, src OfficialSource, lat, lon float64, logger *zap.Logger) []Alert {
	out := []Alert{}
	if src == nil {
		return out
	}
	items, err := src.FetchOfficialAlerts(ctx, lat, lon)
	if err != nil {
		if logger != nil {
			logger.Warn("official alerts unavailable",
				zap.Float64("lat", lat),
				zap.Float64("lon", lon),
				zap.Error(err),
			)
		}
		return out
	}
	for _, item := range items {
		out = append(out, Alert{
			Kind:        KindOfficial,
			Severity:    threshold.Danger,
			Icon:        "⚠️",
			Title:       i18n.Key("alert.official_title"),
			Event:       item.Event,
			Description: item.Description,
		})
	}
	return out
}
