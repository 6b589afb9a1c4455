package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-advisor-service/internal/cities"
	"github.com/kjstillabower/weather-advisor-service/internal/client"
	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
	"github.com/kjstillabower/weather-advisor-service/internal/observability"
	"github.com/kjstillabower/weather-advisor-service/internal/service"
	"github.com/kjstillabower/weather-advisor-service/internal/travel"
	"github.com/kjstillabower/weather-advisor-service/internal/validation"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 16

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	svc          *service.AdvisorService
	client       client.WeatherClient
	catalog      *i18n.Catalog
	defaultLang  i18n.Lang
	healthConfig *HealthConfig
	logger       *zap.Logger

	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. client is used only for the health API key check.
func NewHandler(
	svc *service.AdvisorService,
	client client.WeatherClient,
	catalog *i18n.Catalog,
	defaultLang i18n.Lang,
	healthConfig *HealthConfig,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultLang == "" {
		defaultLang = i18n.DefaultLang
	}
	return &Handler{
		svc:          svc,
		client:       client,
		catalog:      catalog,
		defaultLang:  defaultLang,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// GetCities handles GET /cities.
func (h *Handler) GetCities(w http.ResponseWriter, r *http.Request) {
	lang, ok := h.lang(w, r)
	if !ok {
		return
	}
	all := cities.All()
	out := make([]cityView, len(all))
	for i, c := range all {
		out[i] = newCityView(c, lang)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lang":   lang,
		"cities": out,
	})
}

// GetWeather handles GET /weather/{city}.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	city, lang, ok := h.cityAndLang(w, r, "weather")
	if !ok {
		return
	}
	cw, err := h.svc.CityWeather(r.Context(), city, lang)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, weatherResponse{
		City:      newCityView(city, lang),
		Lang:      lang,
		Current:   cw.Current,
		Daily:     cw.Daily,
		FetchedAt: cw.FetchedAt,
		Stale:     cw.Stale,
	})
}

// GetAlerts handles GET /alerts/{city}.
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	city, lang, ok := h.cityAndLang(w, r, "alerts")
	if !ok {
		return
	}
	res, err := h.svc.Alerts(r.Context(), city, lang)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	views := make([]alertView, len(res.Alerts))
	for i, a := range res.Alerts {
		views[i] = h.newAlertView(a, lang)
	}
	writeJSON(w, http.StatusOK, alertsResponse{
		City:     newCityView(city, lang),
		Lang:     lang,
		Alerts:   views,
		Coverage: res.Coverage,
		Stale:    res.Stale,
	})
}

// GetTravel handles GET /travel/{city}.
func (h *Handler) GetTravel(w http.ResponseWriter, r *http.Request) {
	city, lang, ok := h.cityAndLang(w, r, "travel")
	if !ok {
		return
	}
	days, err := h.svc.Travel(r.Context(), city, lang)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	views := make([]travelDayView, len(days))
	for i, d := range days {
		views[i] = h.newTravelDayView(d, lang)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"city": newCityView(city, lang),
		"lang": lang,
		"days": views,
	})
}

// PostTravelScore handles POST /travel/score. Absent fields take neutral
// defaults; an empty body scores the default day.
func (h *Handler) PostTravelScore(w http.ResponseWriter, r *http.Request) {
	lang, ok := h.lang(w, r)
	if !ok {
		return
	}
	cond := travel.DefaultConditions()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "unable to read request body")
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &cond); err != nil {
			writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object of day conditions")
			return
		}
	}
	if err := validation.ValidateConditions(cond); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	score := travel.Score(cond)
	keys := travel.Reasons(cond, score)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lang":       lang,
		"conditions": cond,
		"score":      score,
		"reasonKeys": keys,
		"reasons":    h.renderKeys(lang, keys),
	})
}

// GetAdvisory handles GET /advisory/{city}.
func (h *Handler) GetAdvisory(w http.ResponseWriter, r *http.Request) {
	city, lang, ok := h.cityAndLang(w, r, "advisory")
	if !ok {
		return
	}
	report, err := h.svc.Advisory(r.Context(), city, lang)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, advisoryResponse{
		City:      newCityView(city, lang),
		Lang:      lang,
		Mode:      report.Mode,
		AIEnabled: h.svc.AIEnabled(),
		Sections: advisorySections{
			WeatherAnalysis: h.newSectionView(report.WeatherAnalysis, lang),
			Activities:      h.newSectionView(report.Activities, lang),
			Outfit:          h.newSectionView(report.Outfit, lang),
			Health:          h.newSectionView(report.Health, lang),
		},
	})
}

// GetAQIRanking handles GET /aqi.
func (h *Handler) GetAQIRanking(w http.ResponseWriter, r *http.Request) {
	lang, ok := h.lang(w, r)
	if !ok {
		return
	}
	readings, err := h.svc.AirQualityRanking(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	views := make([]aqiView, len(readings))
	for i, rd := range readings {
		views[i] = h.newAQIView(rd, lang)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lang":    lang,
		"ranking": views,
	})
}

// GetAQI handles GET /aqi/{city}.
func (h *Handler) GetAQI(w http.ResponseWriter, r *http.Request) {
	city, lang, ok := h.cityAndLang(w, r, "aqi")
	if !ok {
		return
	}
	reading, err := h.svc.AirQuality(r.Context(), city)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.newAQIView(reading, lang))
}

// GetUV handles GET /uv/{city}.
func (h *Handler) GetUV(w http.ResponseWriter, r *http.Request) {
	city, lang, ok := h.cityAndLang(w, r, "uv")
	if !ok {
		return
	}
	uv, err := h.svc.UV(r.Context(), city)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"city":  newCityView(city, lang),
		"lang":  lang,
		"uvi":   uv.UVI,
		"level": h.newLevelView(uv.Level, lang),
	})
}

// lang resolves the response language: ?lang, then Accept-Language, then
// the configured default. Writes a 400 and returns false on a bad ?lang.
func (h *Handler) lang(w http.ResponseWriter, r *http.Request) (i18n.Lang, bool) {
	lang, ok, err := validation.ValidateLang(r.URL.Query().Get("lang"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LANG", err.Error())
		return "", false
	}
	if !ok {
		lang = h.defaultLang
		if al := r.Header.Get("Accept-Language"); strings.TrimSpace(al) != "" {
			lang = i18n.Negotiate(al)
		}
	}
	w.Header().Set("Content-Language", string(lang))
	return lang, true
}

// cityAndLang resolves the {city} path variable and the language, writing
// the error response itself when either is invalid.
func (h *Handler) cityAndLang(w http.ResponseWriter, r *http.Request, endpoint string) (cities.City, i18n.Lang, bool) {
	city, err := validation.ValidateCity(mux.Vars(r)["city"])
	if err != nil {
		switch {
		case errors.Is(err, cities.ErrUnknownCity):
			writeError(w, r, http.StatusNotFound, "UNKNOWN_CITY", err.Error())
		default:
			writeError(w, r, http.StatusBadRequest, "INVALID_CITY", err.Error())
		}
		return cities.City{}, "", false
	}
	lang, ok := h.lang(w, r)
	if !ok {
		return cities.City{}, "", false
	}
	observability.RecordCityQuery(city.Slug, endpoint)
	return city, lang, true
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": observability.CorrelationID(r.Context()),
		},
	})
}

// writeServiceError maps service and upstream errors to responses. The
// underlying error is logged at DEBUG with the request logger.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context(), nil).Debug("service error", zap.Error(err))
	switch {
	case errors.Is(err, service.ErrNotConfigured):
		writeError(w, r, http.StatusNotImplemented, "NOT_CONFIGURED", "This feature requires an API key that is not configured")
	case errors.Is(err, service.ErrNoStations):
		writeError(w, r, http.StatusNotFound, "NO_DATA", "No monitoring stations report for this city")
	case errors.Is(err, client.ErrCityNotFound):
		writeError(w, r, http.StatusNotFound, "CITY_NOT_FOUND", "The weather provider does not know this city")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, "TIMEOUT", "Upstream request timed out")
	default:
		writeError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Unable to fetch weather data")
	}
}
