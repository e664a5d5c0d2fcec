package presenter

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/jobmatch/pkg/feed"
	"github.com/artem13815/jobmatch/pkg/matching"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

func JSON(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(v)
}

func Error(c *fiber.Ctx, status int, message string) error {
	return JSON(c, status, ErrorResponse{Message: message})
}

// StatusOf maps matching errors onto HTTP statuses.
func StatusOf(err error) int {
	var (
		fetchErr *matching.JobFetchError
		writeErr *matching.PersistenceWriteError
		subErr   *matching.SubscriptionError
	)
	switch {
	case errors.Is(err, matching.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, matching.ErrNoFeed):
		return http.StatusNotImplemented
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.As(err, &writeErr), errors.As(err, &subErr), errors.Is(err, feed.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Fail writes err with the status from StatusOf. Internal errors are not echoed.
func Fail(c *fiber.Ctx, err error) error {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		return Error(c, status, "внутренняя ошибка")
	}
	return Error(c, status, err.Error())
}
