package threshold

// Level is an index band with its display key and color token.
type Level struct {
	Key   string `json:"key"`
	Color string `json:"color"`
}

type levelBound struct {
	max   float64
	level Level
}

var aqiLevels = []levelBound{
	{50, Level{Key: "aqi.level_good", Color: "#00e400"}},
	{100, Level{Key: "aqi.level_moderate", Color: "#ffff00"}},
	{150, Level{Key: "aqi.level_sensitive", Color: "#ff7e00"}},
	{200, Level{Key: "aqi.level_unhealthy", Color: "#ff0000"}},
	{300, Level{Key: "aqi.level_very_unhealthy", Color: "#8f3f97"}},
}

var aqiTop = Level{Key: "aqi.level_hazardous", Color: "#7e0023"}

var uvLevels = []levelBound{
	{2, Level{Key: "uv.level_low", Color: "#00e400"}},
	{5, Level{Key: "uv.level_moderate", Color: "#ffff00"}},
	{7, Level{Key: "uv.level_high", Color: "#ff7e00"}},
	{10, Level{Key: "uv.level_very_high", Color: "#ff0000"}},
}

var uvTop = Level{Key: "uv.level_extreme", Color: "#8f3f97"}

func levelFor(v float64, bounds []levelBound, top Level) Level {
	for _, b := range bounds {
		if v <= b.max {
			return b.level
		}
	}
	return top
}

// AQILevel returns the Taiwan AQI category for an index value.
func AQILevel(aqi int) Level {
	return levelFor(float64(aqi), aqiLevels, aqiTop)
}

// UVLevel returns the WHO UV index category.
func UVLevel(uvi float64) Level {
	return levelFor(uvi, uvLevels, uvTop)
}
