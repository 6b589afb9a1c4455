package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-advisor-service/internal/observability"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Logger         *zap.Logger
	Limiter        *rate.Limiter // nil disables rate limiting
	RequestTimeout time.Duration // 0 disables the per-request deadline
}

// NewRouter registers every route. /health and /metrics bypass rate
// limiting and the request deadline; data routes get both.
func NewRouter(h *Handler, cfg RouterConfig) *mux.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(RateLimitMiddleware(cfg.Limiter))
	if cfg.RequestTimeout > 0 {
		api.Use(TimeoutMiddleware(cfg.RequestTimeout))
	}
	api.HandleFunc("/cities", h.GetCities).Methods(http.MethodGet)
	api.HandleFunc("/weather/{city}", h.GetWeather).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{city}", h.GetAlerts).Methods(http.MethodGet)
	api.HandleFunc("/travel/score", h.PostTravelScore).Methods(http.MethodPost)
	api.HandleFunc("/travel/{city}", h.GetTravel).Methods(http.MethodGet)
	api.HandleFunc("/advisory/{city}", h.GetAdvisory).Methods(http.MethodGet)
	api.HandleFunc("/aqi", h.GetAQIRanking).Methods(http.MethodGet)
	api.HandleFunc("/aqi/{city}", h.GetAQI).Methods(http.MethodGet)
	api.HandleFunc("/uv/{city}", h.GetUV).Methods(http.MethodGet)
	return router
}
