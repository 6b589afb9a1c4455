package advisory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
	"github.com/kjstillabower/weather-advisor-service/internal/models"
)

// ErrProviderFailure wraps any failure of a completion call, including panics.
var ErrProviderFailure = errors.New("completion provider failure")

// Completer produces text for a system and user prompt.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float64) (string, error)
}

// Topic identifies one advisory section.
type Topic string

const (
	TopicWeather    Topic = "weather"
	TopicActivities Topic = "activities"
	TopicOutfit     Topic = "outfit"
	TopicHealth     Topic = "health"
)

var topics = []struct {
	topic       Topic
	temperature float64
}{
	{TopicWeather, 0.7},
	{TopicActivities, 0.8},
	{TopicOutfit, 0.7},
	{TopicHealth, 0.7},
}

// Config tunes the orchestrator.
type Config struct {
	CallTimeout time.Duration // per completion; zero means no extra deadline
	// OnCompletion is invoked once per AI call with its outcome.
	OnCompletion func(topic Topic, err error)
	// OnReport is invoked once per Analyze with the resulting mode.
	OnReport func(mode Mode)
}

// Orchestrator chooses between AI and rule-engine advice.
type Orchestrator struct {
	completer Completer
	catalog   *i18n.Catalog
	cfg       Config
	logger    *zap.Logger
}

// NewOrchestrator creates an Orchestrator. A nil completer means AI is not
// configured and every report comes from the rule engine.
func NewOrchestrator(completer Completer, catalog *i18n.Catalog, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{completer: completer, catalog: catalog, cfg: cfg, logger: logger}
}

// AIEnabled reports whether a completion provider is configured.
func (o *Orchestrator) AIEnabled() bool {
	return o.completer != nil
}

// Analyze returns the advisory for one city reading. city is the display
// name inserted into prompts. With every AI call failing, the rule report is
// returned with a notice; partial failures are returned as-is.
func (o *Orchestrator) Analyze(ctx context.Context, lang i18n.Lang, city string, cw models.CurrentWeather, daily []models.DailySummary) (report Report) {
	defer func() {
		if o.cfg.OnReport != nil {
			o.cfg.OnReport(report.Mode)
		}
	}()

	if o.completer == nil {
		return RuleReport(cw, daily)
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("advisory generation panicked, using rules", zap.Any("panic", r))
			report = RuleReport(cw, daily)
		}
	}()

	summary := o.catalog.RenderAll(lang, Summary(cw, daily))
	sections := make([]Section, len(topics))

	var g errgroup.Group
	for i, tp := range topics {
		g.Go(func() error {
			var err error
			sections[i], err = o.section(ctx, lang, tp.topic, tp.temperature, city, summary)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		failed := 0
		for _, s := range sections {
			if s.Failed() {
				failed++
			}
		}
		if failed == len(sections) {
			o.logger.Warn("all completions failed, using rules", zap.String("city", city), zap.Error(err))
			report = RuleReport(cw, daily)
			report.WeatherAnalysis.Lines = append([]i18n.Message{fallbackNotice}, report.WeatherAnalysis.Lines...)
			return report
		}
	}

	return Report{
		WeatherAnalysis: sections[0],
		Activities:      sections[1],
		Outfit:          sections[2],
		Health:          sections[3],
		Mode:            ModeGPT,
	}
}

// section runs one completion. A failure yields an error section and the
// error tagged with its topic.
func (o *Orchestrator) section(ctx context.Context, lang i18n.Lang, topic Topic, temperature float64, city, summary string) (Section, error) {
	text, err := o.complete(ctx, lang, topic, temperature, city, summary)
	o.notify(topic, err)
	if err != nil {
		o.logger.Warn("completion failed",
			zap.String("topic", string(topic)),
			zap.Error(err),
		)
		return errorSection(err), fmt.Errorf("%s: %w", topic, err)
	}
	return Section{Kind: SectionAI, Text: text}, nil
}

// notify reports a completion to OnCompletion. A panicking callback is
// logged and does not affect the section.
func (o *Orchestrator) notify(topic Topic, err error) {
	if o.cfg.OnCompletion == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("completion callback panicked", zap.String("topic", string(topic)), zap.Any("panic", r))
		}
	}()
	o.cfg.OnCompletion(topic, err)
}

func (o *Orchestrator) complete(ctx context.Context, lang i18n.Lang, topic Topic, temperature float64, city, summary string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrProviderFailure, r)
		}
	}()

	if o.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.CallTimeout)
		defer cancel()
	}

	system := o.catalog.Render(lang, i18n.Key("ai.gpt_system_"+string(topic)))
	user := o.catalog.Render(lang, i18n.Message{
		Key:    "ai.gpt_prompt_" + string(topic),
		Params: i18n.Params{"city": city, "summary": summary},
	})
	text, err = o.completer.Complete(ctx, system, user, temperature)
	if err != nil {
		return "", err
	}
	return text, nil
}
