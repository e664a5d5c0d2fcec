package matching

import (
	"bytes"
	"context"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/artem13815/jobmatch/pkg/enrich"
	"github.com/artem13815/jobmatch/pkg/feed"
)

// Subscription is a live handle on a candidate's rankings. It is meant to be closed
// with defer; Close is idempotent and may be called from inside the callback.
type Subscription struct {
	id          string
	candidateID string
	cancel      context.CancelFunc
	done        chan struct{}

	closed atomic.Bool
	// goroutine that runs the callbacks; Close called on it comes from inside a callback
	watcher atomic.Uint64

	mu  sync.Mutex
	err error
}

func (s *Subscription) ID() string          { return s.id }
func (s *Subscription) CandidateID() string { return s.candidateID }

// Done is closed once the subscription stops delivering.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err returns a *SubscriptionError when the feed failed, nil otherwise.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops delivery. When called from another goroutine it waits for a running
// callback to return and for the feed stream to be released. Called from inside the
// callback it returns at once and the watcher stops right after the callback.
func (s *Subscription) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.cancel()
	if s.watcher.Load() != goroutineID() {
		<-s.done
	}
	return nil
}

// goroutineID parses the id from the "goroutine N [...]" header of the current stack.
func goroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = &SubscriptionError{CandidateID: s.candidateID, Err: err}
	}
}

// deliver runs the callback on the watcher goroutine unless the subscription was closed.
func (s *Subscription) deliver(results []enrich.Result, cb func([]enrich.Result)) bool {
	if s.closed.Load() {
		return false
	}
	cb(results)
	return true
}

// Subscribe starts watching the candidate's saved rankings. onUpdate receives the full
// reloaded snapshot after every change, at least once per burst of changes.
func (s *Service) Subscribe(ctx context.Context, candidateID string, onUpdate func([]enrich.Result)) (*Subscription, error) {
	if s.source == nil {
		return nil, ErrNoFeed
	}
	subCtx, cancel := context.WithCancel(ctx)
	stream, err := s.source.Subscribe(subCtx, candidateID)
	if err != nil {
		cancel()
		return nil, &SubscriptionError{CandidateID: candidateID, Err: err}
	}

	sub := &Subscription{
		id:          uuid.NewString(),
		candidateID: candidateID,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	s.log.Debug("subscribed", zap.String("candidate_id", candidateID), zap.String("subscription_id", sub.id))
	go s.watch(subCtx, sub, stream, onUpdate)
	return sub, nil
}

func (s *Service) watch(ctx context.Context, sub *Subscription, stream feed.Stream, onUpdate func([]enrich.Result)) {
	sub.watcher.Store(goroutineID())
	defer close(sub.done)
	defer func() { _ = stream.Close() }()

	log := s.log.With(zap.String("candidate_id", sub.candidateID), zap.String("subscription_id", sub.id))
	limiter := rate.NewLimiter(s.notifyRate, s.notifyBurst)

	for {
		select {
		case <-ctx.Done():
			log.Debug("subscription closed")
			return
		case <-stream.Done():
			if ctx.Err() != nil {
				return
			}
			err := stream.Err()
			if err == nil {
				err = feed.ErrClosed
			}
			sub.fail(err)
			log.Warn("change feed failed", zap.Error(err))
			return
		case <-stream.Events():
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			// events that arrived while waiting are covered by this reload
			select {
			case <-stream.Events():
			default:
			}
			results, err := s.LoadSavedResults(ctx, sub.candidateID, s.defaultLimit, 0)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn("reload saved results", zap.Error(err))
				continue
			}
			if !sub.deliver(results, onUpdate) {
				return
			}
		}
	}
}
