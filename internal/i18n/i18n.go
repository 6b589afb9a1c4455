// Package i18n resolves message keys to localized text.
//
// Decision logic elsewhere in the service emits Message values (a key plus
// named parameters) and never literal display strings; the HTTP layer renders
// them with a Catalog for the caller's language.
package i18n

import (
	"embed"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Lang is a supported catalog language code.
type Lang string

const (
	ZhTW Lang = "zh_tw"
	EN   Lang = "en"
)

// DefaultLang is used when no preference is expressed or the preference is unsupported.
const DefaultLang = ZhTW

// SeparatorKey holds the locale's list separator, used when rendering a List parameter.
const SeparatorKey = "list.separator"

//go:embed locales/*.yaml
var localeFS embed.FS

// Params holds named template parameters. Values may be numbers, strings,
// a nested Message (rendered in the same language) or a List.
type Params map[string]any

// Message is a key into the catalog plus its template parameters.
type Message struct {
	Key    string `json:"key"`
	Params Params `json:"params,omitempty"`
}

// List is a message sequence rendered as one parameter joined by the locale separator.
type List []Message

// Key returns a parameterless Message.
func Key(k string) Message {
	return Message{Key: k}
}

// Catalog holds the loaded locale tables.
type Catalog struct {
	tables map[Lang]map[string]string
}

// Load reads the embedded locale tables.
func Load() (*Catalog, error) {
	c := &Catalog{tables: make(map[Lang]map[string]string)}
	for _, lang := range Supported() {
		raw, err := localeFS.ReadFile("locales/" + string(lang) + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", lang, err)
		}
		table := make(map[string]string)
		if err := yaml.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", lang, err)
		}
		c.tables[lang] = table
	}
	return c, nil
}

// MustLoad is Load for package initialisation and tests; it panics on error.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Supported lists catalog languages, default first.
func Supported() []Lang {
	return []Lang{ZhTW, EN}
}

// ParseLang accepts "zh_tw", "zh-TW", "en", "en-US" style codes.
func ParseLang(s string) (Lang, bool) {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	switch {
	case s == string(ZhTW), s == "zh", strings.HasPrefix(s, "zh_hant"):
		return ZhTW, true
	case s == string(EN), strings.HasPrefix(s, "en_"):
		return EN, true
	}
	return "", false
}

var matcher = language.NewMatcher([]language.Tag{
	language.TraditionalChinese,
	language.English,
})

// Negotiate picks a catalog language from an Accept-Language header value.
func Negotiate(acceptLanguage string) Lang {
	if strings.TrimSpace(acceptLanguage) == "" {
		return DefaultLang
	}
	_, idx := language.MatchStrings(matcher, acceptLanguage)
	if idx == 1 {
		return EN
	}
	return ZhTW
}

// Lookup returns the raw template for key, falling back to the default
// language and finally to the key itself.
func (c *Catalog) Lookup(lang Lang, key string) string {
	if t, ok := c.tables[lang][key]; ok {
		return t
	}
	if t, ok := c.tables[DefaultLang][key]; ok {
		return t
	}
	return key
}

// Has reports whether key exists in the given language table.
func (c *Catalog) Has(lang Lang, key string) bool {
	_, ok := c.tables[lang][key]
	return ok
}

// Keys returns the sorted keys of a language table.
func (c *Catalog) Keys(lang Lang) []string {
	keys := make([]string, 0, len(c.tables[lang]))
	for k := range c.tables[lang] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Render resolves msg to display text. Unknown placeholders are left intact.
func (c *Catalog) Render(lang Lang, msg Message) string {
	tmpl := c.Lookup(lang, msg.Key)
	if len(msg.Params) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(msg.Params)*2)
	for name, v := range msg.Params {
		pairs = append(pairs, "{"+name+"}", c.formatParam(lang, v))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// RenderAll renders and concatenates msgs. Templates carry their own line breaks.
func (c *Catalog) RenderAll(lang Lang, msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(c.Render(lang, m))
	}
	return b.String()
}

func (c *Catalog) formatParam(lang Lang, v any) string {
	switch x := v.(type) {
	case Message:
		return c.Render(lang, x)
	case List:
		parts := make([]string, len(x))
		for i, m := range x {
			parts[i] = c.Render(lang, m)
		}
		return strings.Join(parts, c.Lookup(lang, SeparatorKey))
	case float64:
		return FormatFloat(x)
	case float32:
		return FormatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	default:
		return fmt.Sprint(v)
	}
}

// FormatFloat prints whole numbers with one decimal ("38.0") and other
// values in their shortest form ("12.35").
func FormatFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
