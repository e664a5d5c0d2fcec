package scoring

import (
	"math"
	"time"

	"github.com/artem13815/jobmatch/pkg/nlp"
	"github.com/artem13815/jobmatch/pkg/resume"
	"github.com/artem13815/jobmatch/pkg/vacancy"
)

// fullScore is granted to a category the job states no requirement for.
const fullScore = 100.0

// Engine computes compatibility scores. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	weights Weights
	now     func() time.Time
}

type Option func(*Engine)

// WithClock overrides the clock stamping computed_at.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{weights: DefaultWeights, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Weights() Weights { return e.weights }

// Score compares one profile with one job requirement. Job and candidate ids are
// filled in by the caller.
func (e *Engine) Score(p resume.CandidateProfile, req vacancy.Requirement) MatchResult {
	matchedSkills, missingSkills := partition(req.SkillsRequired, p.Skills)
	matchedTools, missingTools := partition(req.ToolsRequired, p.Tools)

	skills := categoryScore(len(matchedSkills), len(matchedSkills)+len(missingSkills))
	tools := categoryScore(len(matchedTools), len(matchedTools)+len(missingTools))
	lang := languageFit(req.LanguageRequired, p.Languages)
	loc := locationFit(p.Location, req)

	r := MatchResult{
		CandidateID:   p.CandidateID,
		OverallScore:  clamp(round1(e.weights.combine(skills, tools, lang.score, loc.score))),
		SkillsScore:   round1(skills),
		ToolsScore:    round1(tools),
		LanguageScore: round1(lang.score),
		LocationScore: round1(loc.score),
		MatchedSkills: matchedSkills,
		MissingSkills: missingSkills,
		MatchedTools:  matchedTools,
		MissingTools:  missingTools,
		ComputedAt:    e.now().UTC(),
	}
	r.MatchExplanation = explain(r, lang, loc)
	return r
}

// partition splits the deduplicated requirement into matched and missing items,
// keeping the job's spelling and order.
func partition(required []string, have resume.Set) (matched, missing []string) {
	matched, missing = []string{}, []string{}
	req := resume.NewSet(required...)
	candidate := have.Items()
	for _, item := range req.Items() {
		if anyMatch(item, candidate) {
			matched = append(matched, item)
		} else {
			missing = append(missing, item)
		}
	}
	return matched, missing
}

func anyMatch(required string, have []string) bool {
	for _, h := range have {
		if nlp.SkillMatches(required, h) {
			return true
		}
	}
	return false
}

func categoryScore(matched, required int) float64 {
	if required == 0 {
		return fullScore
	}
	return clamp(float64(matched) / float64(required) * 100)
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
