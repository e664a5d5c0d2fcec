package scoring

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/artem13815/jobmatch/pkg/nlp"
	"github.com/artem13815/jobmatch/pkg/resume"
)

type verdict struct {
	score float64
	note  string
}

// languageNames maps codes and local spellings to an English language name.
var languageNames = map[string]string{
	"de": "german", "ger": "german", "deu": "german", "german": "german", "deutsch": "german",
	"en": "english", "eng": "english", "english": "english", "englisch": "english",
	"fr": "french", "french": "french", "français": "french", "francais": "french",
	"es": "spanish", "spanish": "spanish", "español": "spanish", "espanol": "spanish",
	"it": "italian", "italian": "italian",
	"nl": "dutch", "dutch": "dutch",
	"pl": "polish", "polish": "polish",
	"pt": "portuguese", "portuguese": "portuguese",
	"ru": "russian", "russian": "russian",
	"tr": "turkish", "turkish": "turkish",
	"ukrainian": "ukrainian",
	"ar": "arabic", "arabic": "arabic",
	"zh": "chinese", "chinese": "chinese", "mandarin": "chinese",
}

// noRequirement lists normalized values meaning "nothing to check".
var noRequirement = map[string]struct{}{
	"": {}, "unknown": {}, "not required": {}, "none": {}, "no": {}, "false": {},
	"n a": {}, "na": {}, "any": {},
}

// CEFR ladder; "native" sits above C2.
var levelRank = map[string]int{
	"a1": 1, "a2": 2, "b1": 3, "b2": 4, "c1": 5, "c2": 6, "native": 7,
	"basic": 2, "beginner": 1, "elementary": 2, "intermediate": 3, "upper": 4,
	"advanced": 5, "proficient": 6, "fluent": 6, "bilingual": 7, "mother": 7, "muttersprache": 7,
}

// minLevel is the lowest stated level that satisfies a requirement.
const minLevel = 4 // B2

// requiredLanguages parses language_required into canonical language names.
// An empty result means there is no requirement.
func requiredLanguages(required string) []string {
	norm := nlp.NormalizeText(required)
	if _, ok := noRequirement[norm]; ok {
		return nil
	}
	switch norm {
	case "yes", "true", "required", "german required":
		return []string{"german"}
	case "both", "de+en", "en+de":
		return []string{"german", "english"}
	}
	var out []string
	seen := map[string]struct{}{}
	for _, tok := range strings.FieldsFunc(norm, func(r rune) bool { return r == ' ' || r == '+' }) {
		name, ok := languageNames[tok]
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		// free text such as "Swahili"
		return []string{norm}
	}
	return out
}

// spoken reports the languages a candidate entry qualifies for.
func spoken(entry string) (names []string, qualifies bool) {
	tokens := strings.Fields(nlp.NormalizeText(entry))
	rank := 0
	for _, tok := range tokens {
		if name, ok := languageNames[tok]; ok {
			names = append(names, name)
			continue
		}
		if r, ok := levelRank[tok]; ok && r > rank {
			rank = r
		}
	}
	if len(names) == 0 && len(tokens) > 0 {
		names = []string{strings.Join(tokens, " ")}
	}
	return names, rank == 0 || rank >= minLevel
}

func languageFit(required string, langs resume.Set) verdict {
	need := requiredLanguages(required)
	if len(need) == 0 {
		return verdict{score: fullScore, note: "no language requirement"}
	}
	have := map[string]struct{}{}
	for _, entry := range langs.Items() {
		names, ok := spoken(entry)
		if !ok {
			continue
		}
		for _, n := range names {
			have[n] = struct{}{}
		}
	}
	var met, missing []string
	for _, n := range need {
		if _, ok := have[n]; ok {
			met = append(met, n)
		} else {
			missing = append(missing, n)
		}
	}
	switch {
	case len(missing) == 0:
		return verdict{score: fullScore, note: strings.Join(titled(met), " and ") + " requirement met"}
	case len(met) == 0:
		return verdict{score: 0, note: strings.Join(titled(missing), " and ") + " required but not available"}
	default:
		return verdict{
			score: float64(len(met)) / float64(len(need)) * 100,
			note:  strings.Join(titled(met), " and ") + " met, " + strings.Join(titled(missing), " and ") + " missing",
		}
	}
}

func titled(items []string) []string {
	// Casers keep state and are not shared between goroutines.
	c := cases.Title(language.English)
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = c.String(s)
	}
	return out
}
