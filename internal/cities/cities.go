// Package cities holds the fixed registry of supported Taiwan cities.
package cities

import (
	"errors"
	"strings"
)

// ErrUnknownCity is returned when a name matches no registered city.
var ErrUnknownCity = errors.New("unknown city")

// City is one supported location.
type City struct {
	Name   string  `json:"name"`   // English name, used as the OpenWeather query
	NameTW string  `json:"nameTw"` // Chinese display name
	County string  `json:"county"` // MOENV county label
	Slug   string  `json:"slug"`   // URL form, e.g. "new-taipei"
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// DisplayName returns the name shown to users of the given language code.
func (c City) DisplayName(lang string) string {
	if lang == "en" {
		return c.Name
	}
	return c.NameTW
}

var registry = []City{
	{Name: "Taipei", NameTW: "台北", County: "臺北市", Slug: "taipei", Lat: 25.0330, Lon: 121.5654},
	{Name: "New Taipei", NameTW: "新北", County: "新北市", Slug: "new-taipei", Lat: 25.0120, Lon: 121.4650},
	{Name: "Taoyuan", NameTW: "桃園", County: "桃園市", Slug: "taoyuan", Lat: 24.9936, Lon: 121.3010},
	{Name: "Taichung", NameTW: "台中", County: "臺中市", Slug: "taichung", Lat: 24.1477, Lon: 120.6736},
	{Name: "Tainan", NameTW: "台南", County: "臺南市", Slug: "tainan", Lat: 22.9999, Lon: 120.2269},
	{Name: "Kaohsiung", NameTW: "高雄", County: "高雄市", Slug: "kaohsiung", Lat: 22.6273, Lon: 120.3014},
	{Name: "Keelung", NameTW: "基隆", County: "基隆市", Slug: "keelung", Lat: 25.1276, Lon: 121.7392},
	{Name: "Hsinchu", NameTW: "新竹", County: "新竹市", Slug: "hsinchu", Lat: 24.8138, Lon: 120.9675},
	{Name: "Chiayi", NameTW: "嘉義", County: "嘉義市", Slug: "chiayi", Lat: 23.4800, Lon: 120.4491},
	{Name: "Yilan", NameTW: "宜蘭", County: "宜蘭縣", Slug: "yilan", Lat: 24.7570, Lon: 121.7533},
	{Name: "Hualien", NameTW: "花蓮", County: "花蓮縣", Slug: "hualien", Lat: 23.9910, Lon: 121.6113},
	{Name: "Taitung", NameTW: "台東", County: "臺東縣", Slug: "taitung", Lat: 22.7583, Lon: 121.1444},
}

// All returns the registry in display order. The slice is a copy.
func All() []City {
	out := make([]City, len(registry))
	copy(out, registry)
	return out
}

// Lookup resolves an English name (case-insensitive), slug, Chinese display
// name or MOENV county label to a City.
func Lookup(name string) (City, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return City{}, ErrUnknownCity
	}
	for _, c := range registry {
		if strings.EqualFold(c.Name, s) || strings.EqualFold(c.Slug, s) ||
			c.NameTW == s || c.County == s || normalizeTW(c.NameTW) == normalizeTW(s) {
			return c, nil
		}
	}
	return City{}, ErrUnknownCity
}

// normalizeTW folds the traditional 臺 to the common 台 so either spelling matches.
func normalizeTW(s string) string {
	s = strings.ReplaceAll(s, "臺", "台")
	return strings.TrimSuffix(strings.TrimSuffix(s, "市"), "縣")
}
