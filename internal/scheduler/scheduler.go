// Package scheduler keeps the weather cache warm for frequently queried cities.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-advisor-service/internal/cities"
	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
)

// Refresher fetches one city's weather upstream and stores it.
type Refresher interface {
	Refresh(ctx context.Context, city cities.City, lang i18n.Lang) error
}

// Config controls what is warmed and how often.
type Config struct {
	Cities   []cities.City
	Langs    []i18n.Lang
	Interval time.Duration
	Timeout  time.Duration // per refresh
}

// Warmer periodically refreshes the configured cities in every configured language.
type Warmer struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	cfg       Config
	logger    *zap.Logger
}

// New creates a Warmer. Interval defaults to 10 minutes, Timeout to 30 seconds
// and Langs to the default language.
func New(refresher Refresher, cfg Config, logger *zap.Logger) *Warmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if len(cfg.Langs) == 0 {
		cfg.Langs = []i18n.Lang{i18n.DefaultLang}
	}
	return &Warmer{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start schedules the warm job and runs it once immediately. With no cities
// configured it does nothing.
func (w *Warmer) Start() error {
	if len(w.cfg.Cities) == 0 {
		w.logger.Info("cache warming disabled: no cities configured")
		return nil
	}
	_, err := w.scheduler.Every(w.cfg.Interval).SingletonMode().Do(func() {
		if err := w.RunOnce(context.Background()); err != nil {
			w.logger.Warn("cache warming incomplete", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule cache warming: %w", err)
	}
	w.scheduler.StartAsync()
	w.logger.Info("cache warming started",
		zap.Int("cities", len(w.cfg.Cities)),
		zap.Duration("interval", w.cfg.Interval),
	)
	return nil
}

// Stop cancels future runs. A run in progress finishes on its own timeout.
func (w *Warmer) Stop() {
	w.scheduler.Stop()
}

// RunOnce refreshes every city and language concurrently and returns the
// combined refresh errors.
func (w *Warmer) RunOnce(ctx context.Context) error {
	start := time.Now()
	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)
	for _, city := range w.cfg.Cities {
		for _, lang := range w.cfg.Langs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
				defer cancel()
				if err := w.refresher.Refresh(rctx, city, lang); err != nil {
					w.logger.Warn("cache warm failed",
						zap.String("city", city.Name),
						zap.String("lang", string(lang)),
						zap.Error(err),
					)
					mu.Lock()
					errs = multierr.Append(errs, fmt.Errorf("%s/%s: %w", city.Slug, lang, err))
					mu.Unlock()
				}
			}()
		}
	}
	wg.Wait()
	w.logger.Debug("cache warming run complete",
		zap.Duration("duration", time.Since(start)),
		zap.Int("failures", len(multierr.Errors(errs))),
	)
	return errs
}

// ResolveCities maps configured names to registry cities.
func ResolveCities(names []string) ([]cities.City, error) {
	out := make([]cities.City, 0, len(names))
	for _, n := range names {
		c, err := cities.Lookup(n)
		if err != nil {
			return nil, fmt.Errorf("warm city %q: %w", n, err)
		}
		out = append(out, c)
	}
	return out, nil
}
