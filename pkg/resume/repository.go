package resume

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repositories when no profile exists for a candidate.
var ErrNotFound = errors.New("profile not found")

// Repository: порт чтения профилей кандидатов из внешнего хранилища.
type Repository interface {
	GetProfile(ctx context.Context, candidateID string) (Record, error)
}

// Writer сохраняет профили; используется только при сидинге.
type Writer interface {
	UpsertProfile(ctx context.Context, rec Record) error
}
