// Package enrich attaches job and company display data to raw scores.
package enrich

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/artem13815/jobmatch/pkg/scoring"
	"github.com/artem13815/jobmatch/pkg/vacancy"
)

const (
	defaultCurrency = "EUR"
	defaultPeriod   = "yearly"
)

// Display is what a UI shows next to the scores. Unknown fields are empty strings.
type Display struct {
	Title           string     `json:"title"`
	Company         string     `json:"company"`
	Salary          string     `json:"salary"`
	Location        string     `json:"location"`
	ApplicationLink string     `json:"application_link"`
	WorkMode        string     `json:"work_mode"`
	ContractType    string     `json:"contract_type"`
	IsRemote        bool       `json:"is_remote"`
	PostedAt        *time.Time `json:"posted_at,omitempty"`
}

// Result is a MatchResult with its display data under "job".
type Result struct {
	scoring.MatchResult
	Job Display `json:"job"`
}

// Clone deep-copies the result, including the posted_at pointer.
func (r Result) Clone() Result {
	r.MatchResult = r.MatchResult.Clone()
	if r.Job.PostedAt != nil {
		t := *r.Job.PostedAt
		r.Job.PostedAt = &t
	}
	return r
}

// PartialError lists display fields that could not be filled. It never stops a batch.
type PartialError struct {
	JobID  string
	Fields []string
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("job %s: missing display fields: %s", e.JobID, strings.Join(e.Fields, ", "))
}

// Enricher formats display data; the zero value is not usable, use New.
type Enricher struct {
	lang language.Tag
}

func New() *Enricher {
	return &Enricher{lang: language.English}
}

// Enrich joins r with job. A nil job gives an empty display and a *PartialError.
func (e *Enricher) Enrich(r scoring.MatchResult, job *vacancy.Job) (Result, error) {
	out := Result{MatchResult: r}
	if job == nil {
		return out, &PartialError{JobID: r.JobID, Fields: []string{"job"}}
	}
	d := Display{
		Title:           strings.TrimSpace(job.Title),
		Company:         strings.TrimSpace(job.Company.Name),
		Salary:          e.FormatSalary(job.Salary),
		Location:        FormatLocation(*job),
		ApplicationLink: ApplicationLink(*job),
		WorkMode:        string(job.WorkMode),
		ContractType:    string(job.ContractType),
		IsRemote:        job.IsRemote || job.WorkMode == vacancy.WorkModeRemote,
	}
	if !job.PostedAt.IsZero() {
		t := job.PostedAt.UTC()
		d.PostedAt = &t
	}
	out.Job = d

	var missing []string
	for name, v := range map[string]string{
		"title":            d.Title,
		"company":          d.Company,
		"location":         d.Location,
		"application_link": d.ApplicationLink,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return out, &PartialError{JobID: r.JobID, Fields: missing}
	}
	return out, nil
}

// FormatSalary renders "EUR 60,000-80,000 yearly". Both bounds are required.
func (e *Enricher) FormatSalary(s vacancy.Salary) string {
	if s.Min == nil || s.Max == nil {
		return ""
	}
	currency := strings.TrimSpace(s.Currency)
	if currency == "" {
		currency = defaultCurrency
	}
	period := strings.TrimSpace(s.Period)
	if period == "" {
		period = defaultPeriod
	}
	p := message.NewPrinter(e.lang)
	return p.Sprintf("%s %d-%d %s", currency, *s.Min, *s.Max, period)
}

// FormatLocation renders "City, Country", or "Remote" for remote jobs without a city.
func FormatLocation(j vacancy.Job) string {
	var parts []string
	if c := strings.TrimSpace(j.City); c != "" {
		parts = append(parts, c)
	}
	if c := strings.TrimSpace(j.Country); c != "" {
		parts = append(parts, c)
	}
	if len(parts) == 0 && (j.IsRemote || j.WorkMode == vacancy.WorkModeRemote) {
		return "Remote"
	}
	return strings.Join(parts, ", ")
}

// ApplicationLink falls back from the direct link to LinkedIn to the company site.
func ApplicationLink(j vacancy.Job) string {
	for _, l := range []string{j.ApplicationLink, j.LinkedInURL, j.Company.Website} {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}
