package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-advisor-service/internal/client"
	"github.com/kjstillabower/weather-advisor-service/internal/lifecycle"
	"github.com/kjstillabower/weather-advisor-service/internal/observability"
	"github.com/kjstillabower/weather-advisor-service/internal/traffic"
)

// HealthConfig holds thresholds and probes for the health handler.
type HealthConfig struct {
	// Window is the sliding window for upstream error rates.
	Window time.Duration
	// DegradedErrorPct marks an upstream degraded at or above this error share.
	DegradedErrorPct int
	// Optional lists the optional upstreams and whether each is configured.
	Optional map[string]bool
	// CachePing, when set, checks cache reachability.
	CachePing func(ctx context.Context) error
	Version   string
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{
		client.APIOpenWeather: "healthy",
	}
	if result.status == "degraded" {
		checks[client.APIOpenWeather] = "unhealthy"
	}
	cfg := h.healthConfig
	if cfg != nil {
		for name, configured := range cfg.Optional {
			checks[name] = h.upstreamCheck(name, configured)
		}
		if cfg.CachePing != nil {
			checks["cache"] = "healthy"
			if err := cfg.CachePing(r.Context()); err != nil {
				checks["cache"] = "unhealthy"
			}
		}
	}

	version := "dev"
	if cfg != nil && cfg.Version != "" {
		version = cfg.Version
	}
	resp := map[string]interface{}{
		"status":        result.status,
		"service":       observability.ServiceName,
		"version":       version,
		"checks":        checks,
		"aiEnabled":     h.svc != nil && h.svc.AIEnabled(),
		"uptimeSeconds": int64(lifecycle.Uptime().Seconds()),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}
	if result.reason != "" {
		resp["reason"] = result.reason
	}
	writeJSON(w, result.statusCode, resp)
}

// upstreamCheck reports an optional upstream as disabled, degraded (error
// rate at or above threshold within the window) or healthy.
func (h *Handler) upstreamCheck(name string, configured bool) string {
	if !configured {
		return "disabled"
	}
	if pct, ok := traffic.Upstream(name).ErrorPercent(h.healthConfig.Window); ok &&
		h.healthConfig.DegradedErrorPct > 0 && pct >= float64(h.healthConfig.DegradedErrorPct) {
		return "degraded"
	}
	return "healthy"
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > API key invalid > OpenWeather error rate > healthy.
// Optional upstreams never change the overall status.
func (h *Handler) computeHealthStatus(ctx context.Context) healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.client != nil {
		if err := h.client.ValidateAPIKey(ctx); err != nil {
			observability.LoggerFromContext(ctx, h.logger).Debug("api key check failed", zap.Error(err))
			return healthResult{"degraded", http.StatusServiceUnavailable, "api_key_invalid"}
		}
	}
	if cfg := h.healthConfig; cfg != nil && cfg.Window > 0 && cfg.DegradedErrorPct > 0 {
		if pct, ok := traffic.Upstream(client.APIOpenWeather).ErrorPercent(cfg.Window); ok && pct >= float64(cfg.DegradedErrorPct) {
			return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}
