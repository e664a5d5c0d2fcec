package presenter

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/artem13815/jobmatch/pkg/feed"
	"github.com/artem13815/jobmatch/pkg/matching"
)

func TestStatusOf(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid filter", fmt.Errorf("%w: minScore", matching.ErrInvalidFilter), http.StatusBadRequest},
		{"no feed", matching.ErrNoFeed, http.StatusNotImplemented},
		{"job fetch", &matching.JobFetchError{Offset: 500, Err: boom}, http.StatusBadGateway},
		{"wrapped job fetch", fmt.Errorf("match: %w", &matching.JobFetchError{Err: boom}), http.StatusBadGateway},
		{"persistence", &matching.PersistenceWriteError{CandidateID: "c", Err: boom}, http.StatusServiceUnavailable},
		{"subscription", &matching.SubscriptionError{CandidateID: "c", Err: boom}, http.StatusServiceUnavailable},
		{"feed closed", feed.ErrClosed, http.StatusServiceUnavailable},
		{"other", boom, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}
