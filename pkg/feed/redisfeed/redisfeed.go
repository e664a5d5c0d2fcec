// Package redisfeed fans change events out through Redis pub/sub so that several API
// instances see saves made by any of them.
package redisfeed

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/artem13815/jobmatch/pkg/feed"
)

// DefaultPrefix is prepended to the candidate id to form the channel name.
const DefaultPrefix = "match-updates:"

type Feed struct {
	rdb    redis.UniversalClient
	prefix string
	log    *zap.Logger
}

func New(rdb redis.UniversalClient, prefix string, log *zap.Logger) *Feed {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Feed{rdb: rdb, prefix: prefix, log: log}
}

// Channel returns the pub/sub channel for candidateID.
func (f *Feed) Channel(candidateID string) string {
	return f.prefix + candidateID
}

func (f *Feed) Publish(ctx context.Context, candidateID string) error {
	payload := time.Now().UTC().Format(time.RFC3339Nano)
	if err := f.rdb.Publish(ctx, f.Channel(candidateID), payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe waits for Redis to confirm the subscription before returning, so a save
// made right after Subscribe is not missed.
func (f *Feed) Subscribe(ctx context.Context, candidateID string) (feed.Stream, error) {
	channel := f.Channel(candidateID)
	ps := f.rdb.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", channel, err)
	}

	stream, offer, fail := feed.NewStream(func() { _ = ps.Close() })
	stopCtx := context.AfterFunc(ctx, func() { _ = stream.Close() })

	go func() {
		defer stopCtx()
		msgs := ps.Channel()
		for {
			select {
			case <-stream.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					f.log.Warn("redis feed channel closed", zap.String("channel", channel))
					fail(feed.ErrClosed)
					return
				}
				offer(feed.Event{CandidateID: candidateID, At: parseAt(msg.Payload)})
			}
		}
	}()
	return stream, nil
}

func parseAt(payload string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, payload); err == nil {
		return t
	}
	return time.Now().UTC()
}
