package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/artem13815/jobmatch/pkg/feed"
)

// NotifyChannel is the channel the match_results trigger notifies on; the payload is
// the candidate id.
const NotifyChannel = "match_results_changed"

// Listener holds one pooled connection in LISTEN mode and forwards notifications to
// subscribers. It is a feed.Source; writes need no explicit publish.
type Listener struct {
	pool *pgxpool.Pool
	hub  *feed.Hub
	log  *zap.Logger
}

func NewListener(pool *pgxpool.Pool, log *zap.Logger) *Listener {
	if log == nil {
		log = zap.NewNop()
	}
	return &Listener{pool: pool, hub: feed.NewHub(), log: log}
}

func (l *Listener) Subscribe(ctx context.Context, candidateID string) (feed.Stream, error) {
	return l.hub.Subscribe(ctx, candidateID)
}

// Run blocks until ctx is done or the connection fails. On failure every open stream
// ends with the cause; there is no reconnect.
func (l *Listener) Run(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		l.hub.Shutdown(err)
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{NotifyChannel}.Sanitize()); err != nil {
		l.hub.Shutdown(err)
		return fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}
	l.log.Info("listening for result changes", zap.String("channel", NotifyChannel))

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.hub.Shutdown(nil)
				return nil
			}
			l.hub.Shutdown(err)
			return fmt.Errorf("wait for notification: %w", err)
		}
		l.log.Debug("result change", zap.String("candidate_id", n.Payload))
		_ = l.hub.Publish(ctx, n.Payload)
	}
}
