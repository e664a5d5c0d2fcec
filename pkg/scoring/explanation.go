package scoring

import (
	"fmt"
	"strings"
)

// explain builds match_explanation from the partition and the two verdicts.
// The same input always yields the same text.
func explain(r MatchResult, lang, loc verdict) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%.1f%%). ", grade(r.OverallScore), r.OverallScore)
	b.WriteString(category("Skills", r.MatchedSkills, r.MissingSkills))
	b.WriteString(" ")
	b.WriteString(category("Tools", r.MatchedTools, r.MissingTools))
	fmt.Fprintf(&b, " Language: %s. Location: %s.", lang.note, loc.note)
	return b.String()
}

func grade(overall float64) string {
	switch {
	case overall >= 80:
		return "Excellent match"
	case overall >= 60:
		return "Good match"
	case overall >= 40:
		return "Partial match"
	default:
		return "Weak match"
	}
}

func category(name string, matched, missing []string) string {
	total := len(matched) + len(missing)
	if total == 0 {
		return name + ": no requirements."
	}
	s := fmt.Sprintf("%s: %d of %d matched", name, len(matched), total)
	if len(matched) > 0 {
		s += " (" + strings.Join(matched, ", ") + ")"
	}
	if len(missing) > 0 {
		s += "; missing " + strings.Join(missing, ", ")
	}
	return s + "."
}
