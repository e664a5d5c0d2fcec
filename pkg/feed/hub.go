package feed

import (
	"context"
	"sync"
	"time"
)

// Hub is an in-process Source and Publisher. The Postgres listener forwards database
// notifications into a Hub; memory and SQLite deployments publish into it directly.
type Hub struct {
	mu      sync.Mutex
	streams map[string]map[*stream]struct{}
	closed  bool
	err     error
	now     func() time.Time
}

func NewHub() *Hub {
	return &Hub{streams: make(map[string]map[*stream]struct{}), now: time.Now}
}

// Subscribe registers a stream for candidateID. The stream closes when ctx is done.
func (h *Hub) Subscribe(ctx context.Context, candidateID string) (Stream, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		if h.err != nil {
			return nil, h.err
		}
		return nil, ErrClosed
	}
	s := newStream(func(s *stream) { h.remove(candidateID, s) })
	set, ok := h.streams[candidateID]
	if !ok {
		set = make(map[*stream]struct{})
		h.streams[candidateID] = set
	}
	set[s] = struct{}{}
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	s.addHook(func() { stop() })
	return s, nil
}

// Publish notifies every stream of candidateID. It never blocks: a stream that already
// holds a pending event keeps that one.
func (h *Hub) Publish(_ context.Context, candidateID string) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	targets := make([]*stream, 0, len(h.streams[candidateID]))
	for s := range h.streams[candidateID] {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	ev := Event{CandidateID: candidateID, At: h.now().UTC()}
	for _, s := range targets {
		s.offer(ev)
	}
	return nil
}

// Subscribers returns the number of open streams for candidateID.
func (h *Hub) Subscribers(candidateID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.streams[candidateID])
}

// Shutdown ends every stream with cause (ErrClosed when nil) and rejects new subscribers.
func (h *Hub) Shutdown(cause error) {
	if cause == nil {
		cause = ErrClosed
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.err = cause
	var all []*stream
	for _, set := range h.streams {
		for s := range set {
			all = append(all, s)
		}
	}
	h.streams = make(map[string]map[*stream]struct{})
	h.mu.Unlock()

	for _, s := range all {
		s.fail(cause)
	}
}

func (h *Hub) remove(candidateID string, s *stream) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.streams[candidateID]
	delete(set, s)
	if len(set) == 0 {
		delete(h.streams, candidateID)
	}
}

// NewStream returns a stream that is not attached to a Hub, together with the functions
// that feed and fail it. onClose runs once when the stream ends for any reason.
func NewStream(onClose func()) (Stream, func(Event), func(error)) {
	s := newStream(nil)
	if onClose != nil {
		s.addHook(onClose)
	}
	return s, s.offer, s.fail
}

// stream is the Hub's Stream; it is also reused by other sources through NewStream.
type stream struct {
	events  chan Event
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	err     error
	detach  func(*stream)
	onClose []func()
	ended   bool
}

func newStream(detach func(*stream)) *stream {
	return &stream{
		events: make(chan Event, 1),
		done:   make(chan struct{}),
		detach: detach,
	}
}

func (s *stream) Events() <-chan Event  { return s.events }
func (s *stream) Done() <-chan struct{} { return s.done }

func (s *stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stream) Close() error {
	s.finish(nil)
	return nil
}

func (s *stream) fail(err error) { s.finish(err) }

// addHook registers fn to run when the stream ends; on an ended stream it runs at once.
func (s *stream) addHook(fn func()) {
	s.mu.Lock()
	if !s.ended {
		s.onClose = append(s.onClose, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

func (s *stream) finish(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.ended = true
		hooks := s.onClose
		s.onClose = nil
		s.mu.Unlock()
		if s.detach != nil {
			s.detach(s)
		}
		for _, fn := range hooks {
			fn()
		}
		close(s.done)
	})
}

func (s *stream) offer(ev Event) {
	select {
	case <-s.done:
	case s.events <- ev:
	default:
	}
}
