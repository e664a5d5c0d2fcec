package scoring

import (
	"slices"
	"time"
)

// MatchResult: результат сопоставления одного кандидата с одной вакансией.
// matched_* и missing_* всегда разбивают требования вакансии без пересечений.
type MatchResult struct {
	JobID            string    `json:"job_id"`
	CandidateID      string    `json:"candidate_id"`
	OverallScore     float64   `json:"overall_score"`
	SkillsScore      float64   `json:"skills_score"`
	ToolsScore       float64   `json:"tools_score"`
	LanguageScore    float64   `json:"language_score"`
	LocationScore    float64   `json:"location_score"`
	MatchedSkills    []string  `json:"matched_skills"`
	MissingSkills    []string  `json:"missing_skills"`
	MatchedTools     []string  `json:"matched_tools"`
	MissingTools     []string  `json:"missing_tools"`
	MatchExplanation string    `json:"match_explanation"`
	ComputedAt       time.Time `json:"computed_at"`
}

// Clone returns a copy that shares no slices with r.
func (r MatchResult) Clone() MatchResult {
	r.MatchedSkills = slices.Clone(r.MatchedSkills)
	r.MissingSkills = slices.Clone(r.MissingSkills)
	r.MatchedTools = slices.Clone(r.MatchedTools)
	r.MissingTools = slices.Clone(r.MissingTools)
	return r
}
