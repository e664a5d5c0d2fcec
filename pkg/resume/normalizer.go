package resume

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/mitchellh/mapstructure"
)

// looseProfile lists every field name profiles have used over time. Keys of the raw
// document are converted to snake_case before decoding, so camelCase records land here too.
type looseProfile struct {
	Skills          any `mapstructure:"skills"`
	TechnicalSkills any `mapstructure:"technical_skills"`
	SoftSkills      any `mapstructure:"soft_skills"`
	SkillCategories any `mapstructure:"skill_categories"`
	Competencies    any `mapstructure:"competencies"`

	Tools        any `mapstructure:"tools"`
	Technologies any `mapstructure:"technologies"`
	Software     any `mapstructure:"software"`
	TechStack    any `mapstructure:"tech_stack"`

	Languages       any `mapstructure:"languages"`
	SpokenLanguages any `mapstructure:"spoken_languages"`
	LanguageSkills  any `mapstructure:"language_skills"`

	Location          any `mapstructure:"location"`
	LocationCity      any `mapstructure:"location_city"`
	City              any `mapstructure:"city"`
	PreferredLocation any `mapstructure:"preferred_location"`
	Country           any `mapstructure:"country"`

	// Wrappers some producers put around the actual profile.
	Profile any `mapstructure:"profile"`
	Data    any `mapstructure:"data"`
}

// maxDepth bounds recursion into nested buckets of hostile documents.
const maxDepth = 8

// Normalize flattens a raw profile of any known shape into a CandidateProfile.
// It never fails: unknown or malformed input gives a profile with empty sets.
func Normalize(candidateID string, raw any) CandidateProfile {
	p := CandidateProfile{CandidateID: candidateID}
	doc := toDocument(raw)
	if doc == nil {
		return p
	}
	var loc locationParts
	collect(doc, &p, &loc, 0)
	p.Location = loc.String()
	return p
}

func collect(doc map[string]any, p *CandidateProfile, loc *locationParts, depth int) {
	if depth > maxDepth {
		return
	}
	var lp looseProfile
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &lp,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return
	}
	if err := dec.Decode(snakeKeys(doc)); err != nil {
		return
	}

	for _, v := range []any{lp.Skills, lp.TechnicalSkills, lp.SoftSkills, lp.SkillCategories, lp.Competencies} {
		flattenInto(&p.Skills, v, 0)
	}
	for _, v := range []any{lp.Tools, lp.Technologies, lp.Software, lp.TechStack} {
		flattenInto(&p.Tools, v, 0)
	}
	for _, v := range []any{lp.Languages, lp.SpokenLanguages, lp.LanguageSkills} {
		languagesInto(&p.Languages, v, 0)
	}

	loc.take(lp.Location)
	loc.setCity(asString(lp.LocationCity))
	loc.setCity(asString(lp.City))
	loc.setCity(asString(lp.PreferredLocation))
	loc.setCountry(asString(lp.Country))

	for _, nested := range []any{lp.Profile, lp.Data} {
		if m, ok := nested.(map[string]any); ok {
			collect(m, p, loc, depth+1)
		}
	}
}

// toDocument turns supported inputs into a JSON-like map, or nil.
func toDocument(raw any) map[string]any {
	switch v := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	case Record:
		return v.Data
	case *Record:
		if v == nil {
			return nil
		}
		return v.Data
	case json.RawMessage:
		return decodeJSON(v)
	case []byte:
		return decodeJSON(v)
	case string:
		return decodeJSON([]byte(v))
	default:
		var m map[string]any
		if err := mapstructure.Decode(raw, &m); err != nil {
			return nil
		}
		return m
	}
}

func decodeJSON(b []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

// flattenInto walks strings, lists, named objects and category buckets.
func flattenInto(set *Set, v any, depth int) {
	if depth > maxDepth {
		return
	}
	switch t := v.(type) {
	case string:
		for _, part := range splitList(t) {
			set.Add(part)
		}
	case []string:
		for _, s := range t {
			set.Add(s)
		}
	case []any:
		for _, item := range t {
			flattenInto(set, item, depth+1)
		}
	case map[string]any:
		if name := firstString(t, "name", "skill", "title", "tool"); name != "" {
			set.Add(name)
			return
		}
		for _, k := range sortedKeys(t) {
			flattenInto(set, t[k], depth+1)
		}
	}
}

func languagesInto(set *Set, v any, depth int) {
	if depth > maxDepth {
		return
	}
	switch t := v.(type) {
	case string:
		for _, part := range splitList(t) {
			set.Add(part)
		}
	case []string:
		for _, s := range t {
			set.Add(s)
		}
	case []any:
		for _, item := range t {
			languagesInto(set, item, depth+1)
		}
	case map[string]any:
		if name := firstString(t, "language", "name", "lang"); name != "" {
			set.Add(withLevel(name, firstString(t, "level", "proficiency", "cefr")))
			return
		}
		// language → level
		for _, k := range sortedKeys(t) {
			switch lv := t[k].(type) {
			case string:
				set.Add(withLevel(k, lv))
			case bool:
				if lv {
					set.Add(k)
				}
			case map[string]any:
				set.Add(withLevel(k, firstString(lv, "level", "proficiency", "cefr")))
			default:
				set.Add(k)
			}
		}
	}
}

func withLevel(language, level string) string {
	language = strings.TrimSpace(language)
	level = strings.TrimSpace(level)
	if language == "" || level == "" {
		return language
	}
	return fmt.Sprintf("%s (%s)", language, level)
}

type locationParts struct {
	city    string
	country string
}

func (l *locationParts) take(v any) {
	switch t := v.(type) {
	case string:
		l.setCity(t)
	case map[string]any:
		l.setCity(firstString(t, "city", "location_city", "name"))
		l.setCountry(firstString(t, "country"))
	}
}

func (l *locationParts) setCity(s string) {
	if l.city == "" {
		l.city = strings.TrimSpace(s)
	}
}

func (l *locationParts) setCountry(s string) {
	if l.country == "" {
		l.country = strings.TrimSpace(s)
	}
}

func (l locationParts) String() string {
	switch {
	case l.city == "":
		return l.country
	case l.country == "" || strings.Contains(strings.ToLower(l.city), strings.ToLower(l.country)):
		return l.city
	default:
		return l.city + ", " + l.country
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := asString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == '\n' || r == '|' })
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// snakeKeys returns a shallow copy of m with keys converted to snake_case.
// The first key wins when two spellings collide.
func snakeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for _, k := range sortedKeys(m) {
		sk := toSnake(k)
		if _, ok := out[sk]; !ok {
			out[sk] = m[k]
		}
	}
	return out
}

func toSnake(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == '-' || r == ' ':
			b.WriteRune('_')
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return b.String()
}
