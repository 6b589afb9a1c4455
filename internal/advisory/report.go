package advisory

import (
	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
	"github.com/kjstillabower/weather-advisor-service/internal/models"
)

// Mode records which path produced a Report.
type Mode string

const (
	ModeFallback Mode = "fallback"
	ModeGPT      Mode = "gpt"
)

// SectionKind tags the content of a Section.
type SectionKind string

const (
	SectionRules   SectionKind = "rules"
	SectionAI      SectionKind = "ai"
	SectionAIError SectionKind = "ai_error"
)

// Section is one advisory topic. Rules and AI errors carry Lines;
// AI sections carry the provider's Text.
type Section struct {
	Kind  SectionKind    `json:"kind"`
	Lines []i18n.Message `json:"lines,omitempty"`
	Text  string         `json:"text,omitempty"`
}

// Failed reports whether the section is an AI error marker.
func (s Section) Failed() bool {
	return s.Kind == SectionAIError
}

// Render produces display text for the section.
func (s Section) Render(c *i18n.Catalog, lang i18n.Lang) string {
	if s.Kind == SectionAI {
		return s.Text
	}
	return c.RenderAll(lang, s.Lines)
}

// Report is the four-topic advisory.
type Report struct {
	WeatherAnalysis Section `json:"weatherAnalysis"`
	Activities      Section `json:"activities"`
	Outfit          Section `json:"outfit"`
	Health          Section `json:"health"`
	Mode            Mode    `json:"mode"`
}

func rulesSection(lines []i18n.Message) Section {
	return Section{Kind: SectionRules, Lines: lines}
}

func errorSection(err error) Section {
	return Section{Kind: SectionAIError, Lines: []i18n.Message{
		{Key: "ai.error", Params: i18n.Params{"e": err.Error()}},
	}}
}

// RuleReport builds the full advisory from the rule engine.
func RuleReport(cw models.CurrentWeather, daily []models.DailySummary) Report {
	return Report{
		WeatherAnalysis: rulesSection(WeatherAnalysis(cw, daily)),
		Activities:      rulesSection(Activities(cw, daily)),
		Outfit:          rulesSection(Outfit(cw, daily)),
		Health:          rulesSection(Health(cw, daily)),
		Mode:            ModeFallback,
	}
}

// fallbackNotice is prepended to the weather section when every AI call failed.
var fallbackNotice = i18n.Message{
	Key:    "ai.fallback_notice",
	Params: i18n.Params{"msg": i18n.Key("ai.gpt_failed_fallback")},
}
