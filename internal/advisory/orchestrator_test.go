package advisory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
)

type call struct {
	system      string
	user        string
	temperature float64
}

// fakeCompleter answers by matching the system prompt against fail or panic markers.
type fakeCompleter struct {
	mu     sync.Mutex
	calls  []call
	fail   func(system string) error
	panics bool
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{system, user, temperature})
	f.mu.Unlock()
	if f.panics {
		panic("provider exploded")
	}
	if f.fail != nil {
		if err := f.fail(system); err != nil {
			return "", err
		}
	}
	return "AI says: " + system[:10], nil
}

func newTestOrchestrator(c Completer, cfg Config) *Orchestrator {
	return NewOrchestrator(c, i18n.MustLoad(), cfg, zap.NewNop())
}

func TestAnalyze_NoCompleterUsesRules(t *testing.T) {
	var modes []Mode
	o := NewOrchestrator(nil, i18n.MustLoad(), Config{OnReport: func(m Mode) { modes = append(modes, m) }}, nil)
	cw := reading(22, 60, 2)

	got := o.Analyze(context.Background(), i18n.ZhTW, "台北", cw, nil)
	assert.Equal(t, RuleReport(cw, nil), got)
	assert.False(t, o.AIEnabled())
	assert.Equal(t, []Mode{ModeFallback}, modes)
}

func TestAnalyze_AllSucceed(t *testing.T) {
	fc := &fakeCompleter{}
	var mu sync.Mutex
	outcomes := map[Topic]error{}
	o := newTestOrchestrator(fc, Config{OnCompletion: func(tp Topic, err error) {
		mu.Lock()
		outcomes[tp] = err
		mu.Unlock()
	}})
	daily := forecast([]float64{25, 27}, []float64{18, 19}, []float64{10, 70})

	got := o.Analyze(context.Background(), i18n.EN, "Taipei", reading(22, 60, 2), daily)
	assert.Equal(t, ModeGPT, got.Mode)
	for _, s := range []Section{got.WeatherAnalysis, got.Activities, got.Outfit, got.Health} {
		assert.Equal(t, SectionAI, s.Kind)
		assert.True(t, strings.HasPrefix(s.Text, "AI says: "))
	}
	require.Len(t, fc.calls, 4)
	assert.Len(t, outcomes, 4)

	temps := map[float64]int{}
	for _, c := range fc.calls {
		temps[c.temperature]++
		assert.Contains(t, c.user, "Taipei")
		assert.Contains(t, c.user, "[5-Day Forecast]")
		assert.Contains(t, c.user, "03/03 (Tue)")
	}
	assert.Equal(t, map[float64]int{0.7: 3, 0.8: 1}, temps)
}

func TestAnalyze_PartialFailureIsSurfaced(t *testing.T) {
	activities := i18n.MustLoad().Render(i18n.EN, i18n.Key("ai.gpt_system_activities"))
	fc := &fakeCompleter{fail: func(system string) error {
		if system == activities {
			return errors.New("status=500 body=oops")
		}
		return nil
	}}
	o := newTestOrchestrator(fc, Config{})

	got := o.Analyze(context.Background(), i18n.EN, "Taipei", reading(22, 60, 2), nil)
	assert.Equal(t, ModeGPT, got.Mode)
	assert.Equal(t, SectionAI, got.WeatherAnalysis.Kind)
	require.True(t, got.Activities.Failed())
	assert.Equal(t, "ai.error", got.Activities.Lines[0].Key)
	assert.Equal(t, "AI analysis error: status=500 body=oops",
		got.Activities.Render(i18n.MustLoad(), i18n.EN))
}

func TestAnalyze_AllFailFallsBackWithNotice(t *testing.T) {
	fc := &fakeCompleter{fail: func(string) error { return errors.New("unauthorized") }}
	o := newTestOrchestrator(fc, Config{})
	cw := reading(22, 60, 2)

	got := o.Analyze(context.Background(), i18n.ZhTW, "台北", cw, nil)
	assert.Equal(t, ModeFallback, got.Mode)
	require.NotEmpty(t, got.WeatherAnalysis.Lines)
	assert.Equal(t, fallbackNotice, got.WeatherAnalysis.Lines[0])

	rendered := got.WeatherAnalysis.Render(i18n.MustLoad(), i18n.ZhTW)
	assert.True(t, strings.HasPrefix(rendered, "⚠️ GPT 分析失敗，已切換為基礎規則分析。\n\n"), rendered)

	rules := RuleReport(cw, nil)
	assert.Equal(t, rules.Activities, got.Activities)
	assert.Equal(t, rules.WeatherAnalysis.Lines, got.WeatherAnalysis.Lines[1:])
}

func TestAnalyze_PanicsCountAsFailures(t *testing.T) {
	fc := &fakeCompleter{panics: true}
	o := newTestOrchestrator(fc, Config{})

	got := o.Analyze(context.Background(), i18n.EN, "Taipei", reading(22, 60, 2), nil)
	assert.Equal(t, ModeFallback, got.Mode)
	assert.Equal(t, fallbackNotice, got.WeatherAnalysis.Lines[0])
}

func TestAnalyze_SharedFailureFallsBack(t *testing.T) {
	// A nil catalog fails before any call is made.
	o := NewOrchestrator(&fakeCompleter{}, nil, Config{}, zap.NewNop())
	cw := reading(22, 60, 2)

	got := o.Analyze(context.Background(), i18n.EN, "Taipei", cw, nil)
	assert.Equal(t, RuleReport(cw, nil), got)
}

type slowCompleter struct{}

func (slowCompleter) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(time.Second):
		return "late", nil
	}
}

func TestAnalyze_CallTimeout(t *testing.T) {
	o := newTestOrchestrator(slowCompleter{}, Config{CallTimeout: 10 * time.Millisecond})

	start := time.Now()
	got := o.Analyze(context.Background(), i18n.EN, "Taipei", reading(22, 60, 2), nil)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, ModeFallback, got.Mode)
}

func TestAnalyze_PanickingCallbackIsContained(t *testing.T) {
	fc := &fakeCompleter{fail: func(system string) error {
		if strings.Contains(system, "outfit") || strings.Contains(system, "穿搭") {
			return errors.New("quota")
		}
		return nil
	}}
	o := newTestOrchestrator(fc, Config{OnCompletion: func(Topic, error) { panic("metrics down") }})

	var got Report
	require.NotPanics(t, func() {
		got = o.Analyze(context.Background(), i18n.EN, "Taipei", reading(22, 60, 2), nil)
	})
	assert.Equal(t, ModeGPT, got.Mode)
	assert.Equal(t, SectionAI, got.Health.Kind)
	require.Len(t, fc.calls, 4)
}

func TestSection_ReturnsTopicError(t *testing.T) {
	boom := errors.New("boom")
	o := newTestOrchestrator(&fakeCompleter{fail: func(string) error { return boom }}, Config{})

	s, err := o.section(context.Background(), i18n.EN, TopicHealth, 0.7, "Taipei", "summary")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), string(TopicHealth))
	assert.True(t, s.Failed())

	o = newTestOrchestrator(&fakeCompleter{}, Config{})
	s, err = o.section(context.Background(), i18n.EN, TopicHealth, 0.7, "Taipei", "summary")
	require.NoError(t, err)
	assert.Equal(t, SectionAI, s.Kind)
}
