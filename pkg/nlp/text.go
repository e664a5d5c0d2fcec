package nlp

import "strings"

// Tokens возвращает токены нормализованного текста в исходном порядке.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}

// StartsWithPhrase reports whether the normalized text begins with the whole words of
// phrase and has more words after them: "berlin mitte" starts with "berlin", while
// "new york" does not start with "york".
func StartsWithPhrase(normalizedText, normalizedPhrase string) bool {
	text, phrase := Tokens(normalizedText), Tokens(normalizedPhrase)
	if len(phrase) == 0 || len(text) <= len(phrase) {
		return false
	}
	for i, w := range phrase {
		if text[i] != w {
			return false
		}
	}
	return true
}

// ContainsPhrase проверяет наличие фразы (уже нормализованной) как целых слов.
// Пример: "berlin" найдётся в "berlin germany", но не в "berlingen".
func ContainsPhrase(normalizedText, normalizedPhrase string) bool {
	if normalizedPhrase == "" {
		return false
	}
	hay := " " + normalizedText + " "
	needle := " " + normalizedPhrase + " "
	return strings.Contains(hay, needle)
}

// cityAliases groups local spellings of the same city.
var cityAliases = [][]string{
	{"munich", "münchen", "muenchen"},
	{"cologne", "köln", "koeln"},
	{"frankfurt", "frankfurt am main", "frankfurt main"},
	{"düsseldorf", "duesseldorf", "dusseldorf"},
	{"nuremberg", "nürnberg", "nuernberg"},
	{"vienna", "wien"},
	{"zurich", "zürich", "zuerich"},
}

// SameCity reports whether two free-text locations name the same city through a known
// alias. Both arguments must already be normalized.
func SameCity(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	for _, group := range cityAliases {
		if anyPhrase(a, group) && anyPhrase(b, group) {
			return true
		}
	}
	return false
}

func anyPhrase(text string, phrases []string) bool {
	for _, p := range phrases {
		if ContainsPhrase(text, p) {
			return true
		}
	}
	return false
}
