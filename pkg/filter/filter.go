// Package filter narrows a ranked result set. Every filter present in a Spec must pass.
package filter

import (
	"fmt"
	"strings"

	"github.com/artem13815/jobmatch/pkg/enrich"
	"github.com/artem13815/jobmatch/pkg/nlp"
)

// Spec describes the requested filters. Nil or empty fields are not applied.
type Spec struct {
	MinScore       *float64 `json:"minScore,omitempty" mapstructure:"min_score"`
	WorkMode       []string `json:"workMode,omitempty" mapstructure:"work_mode"`
	ContractType   []string `json:"contractType,omitempty" mapstructure:"contract_type"`
	Location       []string `json:"location,omitempty" mapstructure:"location"`
	MustHaveSkills []string `json:"mustHaveSkills,omitempty" mapstructure:"must_have_skills"`
}

// IsZero reports whether the spec filters nothing.
func (s Spec) IsZero() bool {
	return s.MinScore == nil && len(clean(s.WorkMode)) == 0 && len(clean(s.ContractType)) == 0 &&
		len(clean(s.Location)) == 0 && len(clean(s.MustHaveSkills)) == 0
}

// Validate rejects values no result could ever satisfy by mistake.
func (s Spec) Validate() error {
	if s.MinScore != nil && (*s.MinScore < 0 || *s.MinScore > 100) {
		return fmt.Errorf("minScore must be within [0,100], got %v", *s.MinScore)
	}
	return nil
}

// Step describes the result of executing one filtering step.
type Step struct {
	Name    string
	Initial int
	Dropped int
	Left    int
}

type step struct {
	name string
	keep func(enrich.Result) bool
}

// steps returns the enabled filters in evaluation order.
func (s Spec) steps() []step {
	var out []step
	if s.MinScore != nil {
		threshold := *s.MinScore
		out = append(out, step{name: "min_score", keep: func(r enrich.Result) bool {
			return r.OverallScore >= threshold
		}})
	}
	if modes := foldAll(s.WorkMode); len(modes) > 0 {
		out = append(out, step{name: "work_mode", keep: func(r enrich.Result) bool {
			_, ok := modes[nlp.Fold(r.Job.WorkMode)]
			return ok
		}})
	}
	if types := foldAll(s.ContractType); len(types) > 0 {
		out = append(out, step{name: "contract_type", keep: func(r enrich.Result) bool {
			_, ok := types[nlp.Fold(r.Job.ContractType)]
			return ok
		}})
	}
	if locs := clean(s.Location); len(locs) > 0 {
		out = append(out, step{name: "location", keep: func(r enrich.Result) bool {
			have := nlp.Fold(r.Job.Location)
			for _, l := range locs {
				if strings.Contains(have, nlp.Fold(l)) {
					return true
				}
			}
			return false
		}})
	}
	if skills := clean(s.MustHaveSkills); len(skills) > 0 {
		out = append(out, step{name: "must_have_skills", keep: func(r enrich.Result) bool {
			matched := foldAll(r.MatchedSkills)
			for _, sk := range skills {
				if _, ok := matched[nlp.Fold(sk)]; !ok {
					return false
				}
			}
			return true
		}})
	}
	return out
}

// Run applies the spec and reports how many results each step dropped.
// The input slice is left untouched and the order of kept results is preserved.
func Run(results []enrich.Result, s Spec) ([]enrich.Result, []Step) {
	current := results
	var report []Step
	for _, st := range s.steps() {
		kept := make([]enrich.Result, 0, len(current))
		for _, r := range current {
			if st.keep(r) {
				kept = append(kept, r)
			}
		}
		report = append(report, Step{
			Name:    st.name,
			Initial: len(current),
			Dropped: len(current) - len(kept),
			Left:    len(kept),
		})
		current = kept
	}
	if len(report) == 0 {
		current = append([]enrich.Result(nil), results...)
	}
	return current, report
}

// Apply is Run without the report.
func Apply(results []enrich.Result, s Spec) []enrich.Result {
	out, _ := Run(results, s)
	return out
}

func clean(items []string) []string {
	var out []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

func foldAll(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range clean(items) {
		out[nlp.Fold(it)] = struct{}{}
	}
	return out
}
