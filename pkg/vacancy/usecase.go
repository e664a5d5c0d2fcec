package vacancy

import (
	"context"
	"strings"
)

// Importer загружает вакансии во внешнее хранилище (сидинг локальной среды).
type Importer interface {
	Import(ctx context.Context, jobs []Job) (int, error)
}

type importer struct {
	repo Writer
}

func NewImporter(repo Writer) Importer { return &importer{repo: repo} }

// Import validates and upserts jobs one by one; the first invalid or failing job stops the run.
func (s *importer) Import(ctx context.Context, jobs []Job) (int, error) {
	n := 0
	for _, j := range jobs {
		j.Title = strings.TrimSpace(j.Title)
		if j.Title == "" {
			return n, ErrValidation("title is required")
		}
		if err := j.Validate(); err != nil {
			return n, err
		}
		if j.WorkMode == "" {
			j.WorkMode = WorkModeUnknown
		}
		if j.ContractType == "" {
			j.ContractType = ContractUnknown
		}
		if err := s.repo.Upsert(ctx, j); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
