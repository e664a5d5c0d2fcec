// Package matching ranks the job corpus for a candidate and manages the lifecycle of
// those rankings: cache, filters, persistence and live updates.
package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/artem13815/jobmatch/pkg/enrich"
	"github.com/artem13815/jobmatch/pkg/feed"
	"github.com/artem13815/jobmatch/pkg/filter"
	"github.com/artem13815/jobmatch/pkg/matchcache"
	"github.com/artem13815/jobmatch/pkg/resume"
	"github.com/artem13815/jobmatch/pkg/scoring"
	"github.com/artem13815/jobmatch/pkg/vacancy"
)

const (
	DefaultLimit    = 100
	DefaultPageSize = 500
)

// Options control one Match call. The zero value serves cached rankings.
type Options struct {
	Limit int
	// SkipCache forces a fresh ranking; the result still replaces the cached one.
	SkipCache bool
	Filters   filter.Spec
}

// Outcome is a ranked, filtered and truncated result set.
type Outcome struct {
	Results []enrich.Result `json:"results"`
	// Total is the size of the ranking before filters and limit.
	Total   int  `json:"total"`
	Skipped int  `json:"skipped"`
	Partial int  `json:"partial"`
	Cached  bool `json:"cached"`
}

// ranking is what the cache keeps: the full unfiltered list in rank order.
type ranking struct {
	results []enrich.Result
	skipped int
	partial int
}

type Service struct {
	profiles  resume.Repository
	jobs      vacancy.Repository
	store     ResultStore
	source    feed.Source
	publisher feed.Publisher

	engine   *scoring.Engine
	enricher *enrich.Enricher
	cache    *matchcache.Cache[ranking]
	log      *zap.Logger

	pageSize     int
	defaultLimit int
	notifyRate   rate.Limit
	notifyBurst  int
}

type Option func(*Service)

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithEngine(e *scoring.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithCache configures the result cache (TTL, clock).
func WithCache(opts ...matchcache.Option) Option {
	return func(s *Service) { s.cache = matchcache.New[ranking](opts...) }
}

// WithFeed wires the change feed. publisher may be nil when the store itself emits
// events, as the Postgres trigger does.
func WithFeed(source feed.Source, publisher feed.Publisher) Option {
	return func(s *Service) {
		s.source = source
		s.publisher = publisher
	}
}

// WithPageSize sets how many jobs are read from the store per request.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

func WithDefaultLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// WithNotifyRate limits reloads per subscription; zero or less disables pacing.
func WithNotifyRate(perSecond float64) Option {
	return func(s *Service) {
		if perSecond > 0 {
			s.notifyRate = rate.Limit(perSecond)
		} else {
			s.notifyRate = rate.Inf
		}
	}
}

func New(profiles resume.Repository, jobs vacancy.Repository, store ResultStore, opts ...Option) *Service {
	s := &Service{
		profiles:     profiles,
		jobs:         jobs,
		store:        store,
		engine:       scoring.NewEngine(),
		enricher:     enrich.New(),
		cache:        matchcache.New[ranking](),
		log:          zap.NewNop(),
		pageSize:     DefaultPageSize,
		defaultLimit: DefaultLimit,
		notifyRate:   rate.Limit(2),
		notifyBurst:  1,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Match returns the candidate's top jobs. A missing profile yields an empty outcome and
// no error.
func (s *Service) Match(ctx context.Context, candidateID string, opts Options) (Outcome, error) {
	if err := opts.Filters.Validate(); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	var (
		rk     ranking
		cached bool
	)
	if !opts.SkipCache {
		rk, cached = s.cache.Get(candidateID)
	}
	if !cached {
		var (
			found bool
			err   error
		)
		rk, found, err = s.rank(ctx, candidateID)
		if err != nil {
			return Outcome{}, err
		}
		if !found {
			return Outcome{Results: []enrich.Result{}}, nil
		}
		s.cache.Set(candidateID, rk)
	}

	results := rk.results
	if !opts.Filters.IsZero() {
		var steps []filter.Step
		results, steps = filter.Run(rk.results, opts.Filters)
		for _, st := range steps {
			s.log.Debug("filter step",
				zap.String("candidate_id", candidateID),
				zap.String("filter", st.Name),
				zap.Int("initial", st.Initial),
				zap.Int("dropped", st.Dropped),
				zap.Int("left", st.Left),
			)
		}
	}
	if len(results) > limit {
		results = results[:limit]
	}
	// the cached ranking must stay intact whatever the caller does with its copy
	out := make([]enrich.Result, len(results))
	for i, r := range results {
		out[i] = r.Clone()
	}
	return Outcome{
		Results: out,
		Total:   len(rk.results),
		Skipped: rk.skipped,
		Partial: rk.partial,
		Cached:  cached,
	}, nil
}

// rank scores every job in the store. found is false when the profile does not exist.
func (s *Service) rank(ctx context.Context, candidateID string) (ranking, bool, error) {
	rec, err := s.profiles.GetProfile(ctx, candidateID)
	if errors.Is(err, resume.ErrNotFound) {
		s.log.Info("profile not found", zap.String("candidate_id", candidateID))
		return ranking{}, false, nil
	}
	if err != nil {
		return ranking{}, false, fmt.Errorf("load profile %s: %w", candidateID, err)
	}
	profile := resume.Normalize(candidateID, rec)
	if profile.Empty() {
		s.log.Info("profile has no skills, tools, languages or location", zap.String("candidate_id", candidateID))
	}

	rk := ranking{results: []enrich.Result{}}
	for offset := 0; ; offset += s.pageSize {
		page, err := s.jobs.List(ctx, s.pageSize, offset)
		if err != nil {
			return ranking{}, false, &JobFetchError{Offset: offset, Err: err}
		}
		for i := range page {
			res, partial, err := s.scoreOne(profile, &page[i])
			if err != nil {
				rk.skipped++
				s.log.Warn("job skipped",
					zap.String("candidate_id", candidateID),
					zap.String("job_id", page[i].ID),
					zap.Error(err),
				)
				continue
			}
			if partial {
				rk.partial++
			}
			rk.results = append(rk.results, res)
		}
		if len(page) < s.pageSize {
			break
		}
	}

	sortResults(rk.results)
	s.log.Info("ranking computed",
		zap.String("candidate_id", candidateID),
		zap.Int("results", len(rk.results)),
		zap.Int("skipped", rk.skipped),
		zap.Int("partial", rk.partial),
	)
	return rk, true, nil
}

// scoreOne isolates a single job: a malformed record or a panic skips only that job.
func (s *Service) scoreOne(p resume.CandidateProfile, job *vacancy.Job) (res enrich.Result, partial bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while scoring: %v", rec)
		}
	}()
	if err := job.Validate(); err != nil {
		return enrich.Result{}, false, err
	}
	m := s.engine.Score(p, job.Requirement())
	m.JobID = job.ID
	res, perr := s.enricher.Enrich(m, job)
	var pe *enrich.PartialError
	if errors.As(perr, &pe) {
		s.log.Debug("partial enrichment", zap.String("job_id", job.ID), zap.Strings("fields", pe.Fields))
		partial = true
	}
	return res, partial, nil
}

func sortResults(rs []enrich.Result) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].OverallScore != rs[j].OverallScore {
			return rs[i].OverallScore > rs[j].OverallScore
		}
		return rs[i].JobID < rs[j].JobID
	})
}

// SaveResults persists the cached ranking, computing it first when the cache has none,
// and returns the number of stored rows.
func (s *Service) SaveResults(ctx context.Context, candidateID string) (int, error) {
	rk, ok := s.cache.Get(candidateID)
	if !ok {
		var (
			found bool
			err   error
		)
		rk, found, err = s.rank(ctx, candidateID)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, nil
		}
		s.cache.Set(candidateID, rk)
	}

	rows := make([]scoring.MatchResult, 0, len(rk.results))
	for _, r := range rk.results {
		rows = append(rows, r.MatchResult)
	}
	if err := s.store.Upsert(ctx, candidateID, rows, s.engine.Weights()); err != nil {
		return 0, &PersistenceWriteError{CandidateID: candidateID, Err: err}
	}
	s.log.Info("results saved", zap.String("candidate_id", candidateID), zap.Int("rows", len(rows)))

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, candidateID); err != nil {
			s.log.Warn("publish change event", zap.String("candidate_id", candidateID), zap.Error(err))
		}
	}
	return len(rows), nil
}

// LoadSavedResults reads persisted rows and joins them with the jobs as they are now.
// Rows whose job disappeared keep their scores with an empty display.
func (s *Service) LoadSavedResults(ctx context.Context, candidateID string, limit, offset int) ([]enrich.Result, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.store.ListByCandidate(ctx, candidateID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("load saved results for %s: %w", candidateID, err)
	}
	if len(rows) == 0 {
		return []enrich.Result{}, nil
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.JobID)
	}
	jobs, err := s.jobs.GetByIDs(ctx, ids)
	if err != nil {
		return nil, &JobFetchError{Err: err}
	}

	out := make([]enrich.Result, 0, len(rows))
	for _, r := range rows {
		var jp *vacancy.Job
		if j, ok := jobs[r.JobID]; ok {
			jp = &j
		}
		res, _ := s.enricher.Enrich(r, jp)
		out = append(out, res)
	}
	return out, nil
}

// ClearCache drops one candidate's ranking, or every ranking when candidateID is empty.
func (s *Service) ClearCache(candidateID string) {
	if candidateID == "" {
		s.cache.Purge()
		s.log.Info("cache purged")
		return
	}
	s.cache.Delete(candidateID)
	s.log.Debug("cache entry dropped", zap.String("candidate_id", candidateID))
}

func (s *Service) CacheStats() matchcache.Stats {
	return s.cache.Stats()
}
