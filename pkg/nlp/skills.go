package nlp

import (
	"strings"
	"unicode/utf8"
)

// aliases maps a normalized skill to the canonical spelling shared by its synonyms.
var aliases = map[string]string{
	"js":                    "javascript",
	"ecmascript":            "javascript",
	"ts":                    "typescript",
	"golang":                "go",
	"k8s":                   "kubernetes",
	"postgres":              "postgresql",
	"psql":                  "postgresql",
	"node":                  "nodejs",
	"node js":               "nodejs",
	"reactjs":               "react",
	"react js":              "react",
	"vuejs":                 "vue",
	"vue js":                "vue",
	"angularjs":             "angular",
	"c#":                    "csharp",
	"c sharp":               "csharp",
	"c++":                   "cpp",
	"cplusplus":             "cpp",
	"py":                    "python",
	"python3":               "python",
	"mongo":                 "mongodb",
	"gcp":                   "google cloud",
	"google cloud platform": "google cloud",
	"amazon web services":   "aws",
	"ms excel":              "excel",
	"microsoft excel":       "excel",
	"adobe photoshop":       "photoshop",
	"adobe illustrator":     "illustrator",
	"rest api":              "rest",
	"restful":               "rest",
	"ci cd":                 "cicd",
}

// minContainLen is the shortest needle allowed for substring matching; one-letter
// skills such as "C" or "R" only match by equality.
const minContainLen = 2

// Canonical returns the canonical alias of an already normalized skill.
func Canonical(normalized string) string {
	if c, ok := aliases[normalized]; ok {
		return c
	}
	return normalized
}

// SkillVariants returns normalized variants for matching (synonyms/aliases).
func SkillVariants(skill string) []string {
	base := NormalizeSkill(skill)
	if base == "" {
		return []string{}
	}
	out := []string{base}
	if c := Canonical(base); c != base {
		out = append(out, c)
	}
	parts := strings.Split(base, " ")
	if len(parts) > 1 {
		expanded := make([]string, 0, len(parts))
		for _, p := range parts {
			expanded = append(expanded, Canonical(p))
		}
		if joined := strings.Join(expanded, " "); joined != base {
			out = append(out, joined)
		}
	}
	return out
}

// SkillMatches reports whether a candidate item satisfies a required item: equal after
// normalization, equal through an alias, or one contains the other ("Node" vs "Node.js").
func SkillMatches(required, have string) bool {
	r := NormalizeSkill(required)
	h := NormalizeSkill(have)
	if r == "" || h == "" {
		return false
	}
	if r == h || contains(r, h) || contains(h, r) {
		return true
	}
	for _, rv := range SkillVariants(required) {
		for _, hv := range SkillVariants(have) {
			if rv == hv {
				return true
			}
		}
	}
	return false
}

func contains(hay, needle string) bool {
	if utf8.RuneCountInString(needle) < minContainLen {
		return false
	}
	return strings.Contains(hay, needle)
}
