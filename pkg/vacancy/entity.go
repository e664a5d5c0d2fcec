package vacancy

import (
	"context"
	"errors"
	"strings"
	"time"
)

// WorkMode: формат работы по вакансии.
type WorkMode string

const (
	WorkModeRemote  WorkMode = "Remote"
	WorkModeHybrid  WorkMode = "Hybrid"
	WorkModeOnsite  WorkMode = "Onsite"
	WorkModeUnknown WorkMode = "Unknown"
)

// ContractType: тип договора.
type ContractType string

const (
	ContractFullTime    ContractType = "Full-time"
	ContractPartTime    ContractType = "Part-time"
	ContractContract    ContractType = "Contract"
	ContractInternship  ContractType = "Internship"
	ContractWerkstudent ContractType = "Werkstudent"
	ContractUnknown     ContractType = "Unknown"
)

// Sentinels for language_required.
const (
	LanguageUnknown     = "unknown"
	LanguageNotRequired = "not required"
)

// Company: работодатель.
type Company struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Website string `json:"website" yaml:"website"`
}

// Salary: вилка зарплаты; границы необязательны.
type Salary struct {
	Min      *int   `json:"min,omitempty" yaml:"min"`
	Max      *int   `json:"max,omitempty" yaml:"max"`
	Currency string `json:"currency" yaml:"currency"`
	Period   string `json:"period" yaml:"period"`
}

// Job описывает вакансию так, как её хранит внешнее хранилище вакансий.
type Job struct {
	ID               string       `json:"id" yaml:"id"`
	Title            string       `json:"title" yaml:"title"`
	Company          Company      `json:"company" yaml:"company"`
	WorkMode         WorkMode     `json:"work_mode" yaml:"work_mode"`
	ContractType     ContractType `json:"contract_type" yaml:"contract_type"`
	City             string       `json:"city" yaml:"city"`
	Country          string       `json:"country" yaml:"country"`
	IsRemote         bool         `json:"is_remote" yaml:"is_remote"`
	Salary           Salary       `json:"salary" yaml:"salary"`
	Skills           []string     `json:"skills" yaml:"skills"`
	Tools            []string     `json:"tools" yaml:"tools"`
	LanguageRequired string       `json:"language_required" yaml:"language_required"`
	ApplicationLink  string       `json:"application_link" yaml:"application_link"`
	LinkedInURL      string       `json:"linkedin_url" yaml:"linkedin_url"`
	PostedAt         time.Time    `json:"posted_at" yaml:"posted_at"`
}

// Location: город и страна вакансии.
type Location struct {
	City    string
	Country string
}

// Requirement: то, что скоринг знает о вакансии.
type Requirement struct {
	SkillsRequired   []string
	ToolsRequired    []string
	LanguageRequired string
	Location         Location
	IsRemote         bool
	WorkMode         WorkMode
	ContractType     ContractType
	Salary           Salary
}

// Requirement derives the scoring view of the job.
func (j Job) Requirement() Requirement {
	return Requirement{
		SkillsRequired:   j.Skills,
		ToolsRequired:    j.Tools,
		LanguageRequired: j.LanguageRequired,
		Location:         Location{City: j.City, Country: j.Country},
		IsRemote:         j.IsRemote || j.WorkMode == WorkModeRemote,
		WorkMode:         j.WorkMode,
		ContractType:     j.ContractType,
		Salary:           j.Salary,
	}
}

// ErrValidation простая ошибка валидации.
type ErrValidation string

func (e ErrValidation) Error() string { return string(e) }

// Validate reports records that cannot be scored.
func (j Job) Validate() error {
	if strings.TrimSpace(j.ID) == "" {
		return ErrValidation("job id is required")
	}
	if s := j.Salary; s.Min != nil && s.Max != nil && *s.Min > *s.Max {
		return ErrValidation("salary min exceeds max")
	}
	return nil
}

// ErrNotFound is returned when a job does not exist.
var ErrNotFound = errors.New("job not found")

// Repository: порт чтения вакансий.
type Repository interface {
	// List returns active jobs ordered by posted_at desc, then id.
	List(ctx context.Context, limit, offset int) ([]Job, error)
	// GetByIDs returns the jobs that still exist; missing ids are absent from the map.
	GetByIDs(ctx context.Context, ids []string) (map[string]Job, error)
}

// Writer stores jobs; used by the seeding flow only.
type Writer interface {
	Upsert(ctx context.Context, j Job) error
}
