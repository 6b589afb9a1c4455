package alerts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/weather-advisor-service/internal/models"
	"github.com/kjstillabower/weather-advisor-service/internal/threshold"
)

type stubSource struct {
	items []models.OfficialAlert
	err   error
	calls int
}

func (s *stubSource) FetchOfficialAlerts(ctx context.Context, lat, lon float64) ([]models.OfficialAlert, error) {
	s.calls++
	return s.items, s.err
}

func TestOfficial_ConvertsItems(t *testing.T) {
	src := &stubSource{items: []models.OfficialAlert{
		{Event: "Heavy Rain Advisory", Description: "Rainfall over 80mm expected"},
		{Event: "Strong Wind", Description: "Gusts up to level 9"},
	}}

	got := Official(context.Background(), src, 25.03, 121.56, zap.NewNop())
	require.Len(t, got, 2)
	for _, a := range got {
		assert.Equal(t, KindOfficial, a.Kind)
		assert.Equal(t, threshold.Danger, a.Severity)
		assert.Equal(t, "⚠️", a.Icon)
		assert.Equal(t, "alert.official_title", a.Title.Key)
		assert.Nil(t, a.Message)
	}
	assert.Equal(t, "Heavy Rain Advisory", got[0].Event)
	assert.Equal(t, "Gusts up to level 9", got[1].Description)
}

func TestOfficial_FailureIsEmptyAndSingleAttempt(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	src := &stubSource{err: errors.New("timeout")}

	got := Official(context.Background(), src, 0, 0, zap.New(core))
	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 1, logs.FilterMessage("official alerts unavailable").Len())
}

func TestOfficial_NilSource(t *testing.T) {
	assert.Empty(t, Official(context.Background(), nil, 0, 0, nil))
}
