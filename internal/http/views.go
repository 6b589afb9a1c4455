package http

import (
	"time"

	"github.com/kjstillabower/weather-advisor-service/internal/advisory"
	"github.com/kjstillabower/weather-advisor-service/internal/airquality"
	"github.com/kjstillabower/weather-advisor-service/internal/alerts"
	"github.com/kjstillabower/weather-advisor-service/internal/cities"
	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
	"github.com/kjstillabower/weather-advisor-service/internal/models"
	"github.com/kjstillabower/weather-advisor-service/internal/service"
	"github.com/kjstillabower/weather-advisor-service/internal/threshold"
	"github.com/kjstillabower/weather-advisor-service/internal/travel"
)

// Response shapes. Message keys are kept alongside rendered text so clients
// can localize on their side.

type cityView struct {
	cities.City
	DisplayName string `json:"displayName"`
}

func newCityView(c cities.City, lang i18n.Lang) cityView {
	return cityView{City: c, DisplayName: c.DisplayName(string(lang))}
}

type weatherResponse struct {
	City      cityView              `json:"city"`
	Lang      i18n.Lang             `json:"lang"`
	Current   models.CurrentWeather `json:"current"`
	Daily     []models.DailySummary `json:"daily"`
	FetchedAt time.Time             `json:"fetchedAt"`
	Stale     bool                  `json:"stale,omitempty"`
}

type alertView struct {
	Kind      alerts.Kind        `json:"kind"`
	Severity  threshold.Severity `json:"severity"`
	Icon      string             `json:"icon"`
	TitleKey  string             `json:"titleKey"`
	Title     string             `json:"title"`
	Message   string             `json:"message"`
	Event     string             `json:"event,omitempty"`
	Value     float64            `json:"value,omitempty"`
	Threshold float64            `json:"threshold,omitempty"`
}

type alertsResponse struct {
	City     cityView         `json:"city"`
	Lang     i18n.Lang        `json:"lang"`
	Alerts   []alertView      `json:"alerts"`
	Coverage service.Coverage `json:"coverage"`
	Stale    bool             `json:"stale,omitempty"`
}

// newAlertView renders a rule alert's templated message, or relays an
// official alert's description as published.
func (h *Handler) newAlertView(a alerts.Alert, lang i18n.Lang) alertView {
	v := alertView{
		Kind:      a.Kind,
		Severity:  a.Severity,
		Icon:      a.Icon,
		TitleKey:  a.Title.Key,
		Title:     h.catalog.Render(lang, a.Title),
		Event:     a.Event,
		Value:     a.Value,
		Threshold: a.Threshold,
	}
	if a.Message != nil {
		v.Message = h.catalog.Render(lang, *a.Message)
	} else {
		v.Message = a.Description
	}
	return v
}

type travelDayView struct {
	travel.RankedDay
	Date       string   `json:"date"`
	Weekday    string   `json:"weekday"`
	ReasonKeys []string `json:"reasonKeys"`
	Reasons    []string `json:"reasons"`
}

func (h *Handler) newTravelDayView(d travel.RankedDay, lang i18n.Lang) travelDayView {
	return travelDayView{
		RankedDay:  d,
		Date:       d.Date.Format("2006-01-02"),
		Weekday:    h.catalog.Render(lang, advisory.WeekdayKey(d.Date)),
		ReasonKeys: d.Reasons,
		Reasons:    h.renderKeys(lang, d.Reasons),
	}
}

type sectionView struct {
	Kind advisory.SectionKind `json:"kind"`
	Text string               `json:"text"`
}

type advisorySections struct {
	WeatherAnalysis sectionView `json:"weatherAnalysis"`
	Activities      sectionView `json:"activities"`
	Outfit          sectionView `json:"outfit"`
	Health          sectionView `json:"health"`
}

type advisoryResponse struct {
	City      cityView         `json:"city"`
	Lang      i18n.Lang        `json:"lang"`
	Mode      advisory.Mode    `json:"mode"`
	AIEnabled bool             `json:"aiEnabled"`
	Sections  advisorySections `json:"sections"`
}

func (h *Handler) newSectionView(s advisory.Section, lang i18n.Lang) sectionView {
	return sectionView{Kind: s.Kind, Text: s.Render(h.catalog, lang)}
}

type levelView struct {
	threshold.Level
	Label string `json:"label"`
}

func (h *Handler) newLevelView(l threshold.Level, lang i18n.Lang) levelView {
	return levelView{Level: l, Label: h.catalog.Render(lang, i18n.Key(l.Key))}
}

type aqiView struct {
	airquality.Reading
	DisplayName string    `json:"displayName"`
	Level       levelView `json:"level"`
}

func (h *Handler) newAQIView(r airquality.Reading, lang i18n.Lang) aqiView {
	name := r.City
	if c, err := cities.Lookup(r.City); err == nil {
		name = c.DisplayName(string(lang))
	}
	return aqiView{Reading: r, DisplayName: name, Level: h.newLevelView(r.Level, lang)}
}

func (h *Handler) renderKeys(lang i18n.Lang, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = h.catalog.Render(lang, i18n.Key(k))
	}
	return out
}
