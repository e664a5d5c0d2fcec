package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/jobmatch/api/http/presenter"
)

// @Summary  Сбросить кэш подбора целиком
// @Tags     Кэш
// @Security BearerAuth
// @Success  204
// @Failure  403 {object} presenter.ErrorResponse
// @Router   /cache [delete]
func (h *MatchHandler) ClearAll(c *fiber.Ctx) error {
	h.uc.ClearCache("")
	return c.SendStatus(http.StatusNoContent)
}

// @Summary  Сбросить кэш подбора кандидата
// @Tags     Кэш
// @Param    id path string true "ID кандидата"
// @Security BearerAuth
// @Success  204
// @Router   /cache/{id} [delete]
func (h *MatchHandler) Clear(c *fiber.Ctx) error {
	id, status, msg := candidateID(c)
	if status != 0 {
		return presenter.Error(c, status, msg)
	}
	h.uc.ClearCache(id)
	return c.SendStatus(http.StatusNoContent)
}

// @Summary  Статистика кэша
// @Tags     Кэш
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} matchcache.Stats
// @Router   /cache/stats [get]
func (h *MatchHandler) Stats(c *fiber.Ctx) error {
	return presenter.JSON(c, http.StatusOK, h.uc.CacheStats())
}
