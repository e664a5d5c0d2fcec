package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/artem13815/jobmatch/api/http/presenter"
	"github.com/artem13815/jobmatch/pkg/enrich"
)

// StreamConfig tunes the SSE endpoint.
type StreamConfig struct {
	KeepAlive     time.Duration
	SnapshotLimit int
}

type StreamOption func(*StreamConfig)

func WithKeepAlive(d time.Duration) StreamOption {
	return func(s *StreamConfig) {
		if d > 0 {
			s.KeepAlive = d
		}
	}
}

func WithSnapshotLimit(n int) StreamOption {
	return func(s *StreamConfig) {
		if n > 0 {
			s.SnapshotLimit = n
		}
	}
}

func defaultStreamConfig() StreamConfig {
	return StreamConfig{KeepAlive: 15 * time.Second, SnapshotLimit: 100}
}

// @Summary     Поток обновлений подбора (SSE)
// @Description Первое событие содержит сохранённые результаты, далее полный снимок после каждого сохранения.
// @Tags        Подбор
// @Produce     text/event-stream
// @Param       id path string true "ID кандидата"
// @Security    BearerAuth
// @Failure     501 {object} presenter.ErrorResponse
// @Router      /candidates/{id}/matches/stream [get]
func (h *MatchHandler) Stream(c *fiber.Ctx) error {
	id, status, msg := candidateID(c)
	if status != 0 {
		return presenter.Error(c, status, msg)
	}

	// the request context is recycled once the handler returns; the stream outlives it
	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan []enrich.Result, 1)
	sub, err := h.uc.Subscribe(ctx, id, func(rs []enrich.Result) {
		select {
		case <-updates:
		default:
		}
		updates <- rs
	})
	if err != nil {
		cancel()
		return presenter.Fail(c, err)
	}
	initial, err := h.uc.LoadSavedResults(c.Context(), id, h.stream.SnapshotLimit, 0)
	if err != nil {
		_ = sub.Close()
		cancel()
		return presenter.Fail(c, err)
	}

	log := h.log.With(zap.String("candidate_id", sub.CandidateID()), zap.String("subscription_id", sub.ID()))
	keepAlive := h.stream.KeepAlive

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer func() { _ = sub.Close() }()

		if err := writeSnapshot(w, initial); err != nil {
			return
		}
		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()
		for {
			select {
			case rs := <-updates:
				if err := writeSnapshot(w, rs); err != nil {
					log.Debug("stream client gone", zap.Error(err))
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					log.Debug("stream client gone", zap.Error(err))
					return
				}
			case <-sub.Done():
				if err := sub.Err(); err != nil {
					log.Warn("stream feed failed", zap.Error(err))
					data, _ := json.Marshal(presenter.ErrorResponse{Message: err.Error()})
					_, _ = fmt.Fprintf(w, "event: error\ndata: %s\n\n", data)
					_ = w.Flush()
				}
				return
			}
		}
	}))
	return nil
}

func writeSnapshot(w *bufio.Writer, rs []enrich.Result) error {
	if rs == nil {
		rs = []enrich.Result{}
	}
	data, err := json.Marshal(fiber.Map{"results": rs})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: matches\ndata: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}
