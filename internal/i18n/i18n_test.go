package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_TablesHaveSameKeys(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	zh := c.Keys(ZhTW)
	en := c.Keys(EN)
	require.NotEmpty(t, zh)
	assert.Equal(t, zh, en, "locale tables must define the same keys")
}

func TestRender(t *testing.T) {
	c := MustLoad()

	tests := []struct {
		name string
		lang Lang
		msg  Message
		want string
	}{
		{
			name: "float params",
			lang: EN,
			msg:  Message{Key: "alert.temp_swing_msg", Params: Params{"v": 15.0, "t": 10}},
			want: "Daily temp swing 15.0°C (over 10°C); adjust clothing accordingly.",
		},
		{
			name: "nested message",
			lang: EN,
			msg: Message{Key: "rule.act_reason_prefix", Params: Params{
				"reasons": List{Key("rule.act_reason_hot"), Key("rule.act_reason_wind")},
			}},
			want: "- Reason: Temperature too high, Too windy\n",
		},
		{
			name: "zh separator",
			lang: ZhTW,
			msg: Message{Key: "rule.act_reason_prefix", Params: Params{
				"reasons": List{Key("rule.act_reason_hot"), Key("rule.act_reason_rain")},
			}},
			want: "- 原因：氣溫過高、降雨機率高\n",
		},
		{
			name: "unknown key falls back to key",
			lang: EN,
			msg:  Key("no.such.key"),
			want: "no.such.key",
		},
		{
			name: "missing param left intact",
			lang: EN,
			msg:  Key("rule.rain_some"),
			want: "- 🌂 Some days may have rain ({n} days); consider carrying an umbrella.\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Render(tt.lang, tt.msg))
		})
	}
}

func TestRender_UnknownLangUsesDefault(t *testing.T) {
	c := MustLoad()
	assert.Equal(t, "一", c.Render(Lang("fr"), Key("weekday.0")))
}

func TestRenderAll(t *testing.T) {
	c := MustLoad()
	got := c.RenderAll(EN, []Message{Key("rule.trend_title"), Key("rule.trend_stable")})
	assert.Equal(t, "\n**📈 Future Weather Trend**\n- Temperatures will remain **relatively stable**.\n", got)
}

func TestParseLang(t *testing.T) {
	tests := []struct {
		in   string
		want Lang
		ok   bool
	}{
		{"zh_tw", ZhTW, true},
		{"zh-TW", ZhTW, true},
		{"zh-Hant", ZhTW, true},
		{"en", EN, true},
		{"en-US", EN, true},
		{"fr", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseLang(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestNegotiate(t *testing.T) {
	assert.Equal(t, ZhTW, Negotiate(""))
	assert.Equal(t, EN, Negotiate("en-US,en;q=0.9"))
	assert.Equal(t, ZhTW, Negotiate("zh-TW,zh;q=0.9,en;q=0.5"))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "38.0", FormatFloat(38))
	assert.Equal(t, "12.5", FormatFloat(12.5))
	assert.Equal(t, "-3.2", FormatFloat(-3.2))
}
