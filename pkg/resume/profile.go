package resume

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/artem13815/jobmatch/pkg/nlp"
)

// CandidateProfile: каноническое представление кандидата, с которым работает скоринг.
// Собирается только через Normalize; снимок не меняется в ходе одного прогона.
type CandidateProfile struct {
	CandidateID string `json:"candidate_id"`
	Skills      Set    `json:"skills"`
	Tools       Set    `json:"tools"`
	Languages   Set    `json:"languages"`
	// Location пустая строка, если местоположение неизвестно.
	Location string `json:"location"`
}

// Empty reports whether the profile carries nothing to match against.
func (p CandidateProfile) Empty() bool {
	return p.Skills.Len() == 0 && p.Tools.Len() == 0 && p.Languages.Len() == 0 && p.Location == ""
}

// Record: сырая запись профиля в том виде, в каком её хранит внешнее хранилище.
type Record struct {
	CandidateID string         `json:"candidate_id" yaml:"candidate_id"`
	Data        map[string]any `json:"data" yaml:"data"`
	UpdatedAt   time.Time      `json:"updated_at" yaml:"updated_at"`
}

// Set is an ordered string set deduplicated case-insensitively. The first spelling
// added wins and is the one reported back.
type Set struct {
	items []string
	index map[string]struct{}
}

// NewSet builds a Set from items, skipping blanks and case-insensitive duplicates.
func NewSet(items ...string) Set {
	var s Set
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add inserts item and reports whether it was new.
func (s *Set) Add(item string) bool {
	item = strings.TrimSpace(item)
	if item == "" {
		return false
	}
	key := nlp.Fold(item)
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	s.items = append(s.items, item)
	return true
}

func (s Set) Contains(item string) bool {
	_, ok := s.index[nlp.Fold(item)]
	return ok
}

func (s Set) Len() int { return len(s.items) }

// Items returns a copy of the members in insertion order.
func (s Set) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Items())
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewSet(items...)
	return nil
}
