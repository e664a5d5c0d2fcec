package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/artem13815/jobmatch/api/http/presenter"
	"github.com/artem13815/jobmatch/pkg/enrich"
	"github.com/artem13815/jobmatch/pkg/filter"
	"github.com/artem13815/jobmatch/pkg/matchcache"
	"github.com/artem13815/jobmatch/pkg/matching"
	"github.com/artem13815/jobmatch/pkg/security/jwt"
)

// MatchUseCase is the part of matching.Service the HTTP layer needs.
type MatchUseCase interface {
	Match(ctx context.Context, candidateID string, opts matching.Options) (matching.Outcome, error)
	SaveResults(ctx context.Context, candidateID string) (int, error)
	LoadSavedResults(ctx context.Context, candidateID string, limit, offset int) ([]enrich.Result, error)
	Subscribe(ctx context.Context, candidateID string, onUpdate func([]enrich.Result)) (*matching.Subscription, error)
	ClearCache(candidateID string)
	CacheStats() matchcache.Stats
}

type MatchHandler struct {
	uc     MatchUseCase
	log    *zap.Logger
	search *gojsonschema.Schema
	stream StreamConfig
}

func NewMatchHandler(uc MatchUseCase, log *zap.Logger, opts ...StreamOption) *MatchHandler {
	if log == nil {
		log = zap.NewNop()
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(searchSchema))
	if err != nil {
		panic("handlers: search schema: " + err.Error())
	}
	h := &MatchHandler{uc: uc, log: log, search: schema, stream: defaultStreamConfig()}
	for _, opt := range opts {
		opt(&h.stream)
	}
	return h
}

const searchSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "limit":          {"type": "integer", "minimum": 1, "maximum": 1000},
    "useCache":       {"type": "boolean"},
    "minScore":       {"type": "number", "minimum": 0, "maximum": 100},
    "workMode":       {"type": "array", "items": {"type": "string"}},
    "contractType":   {"type": "array", "items": {"type": "string"}},
    "location":       {"type": "array", "items": {"type": "string"}},
    "mustHaveSkills": {"type": "array", "items": {"type": "string"}}
  }
}`

type searchRequest struct {
	Limit    int   `json:"limit"`
	UseCache *bool `json:"useCache"`
	filter.Spec
}

// candidateID returns the :id path param if the token may access it.
func candidateID(c *fiber.Ctx) (string, int, string) {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return "", http.StatusBadRequest, "не указан кандидат"
	}
	sub := jwt.Subject(c)
	if sub == "" {
		return "", http.StatusUnauthorized, "не удалось определить пользователя"
	}
	if sub != id && !jwt.IsAdmin(c) {
		return "", http.StatusForbidden, "нет доступа к результатам другого кандидата"
	}
	return id, 0, ""
}

// @Summary     Подбор вакансий для кандидата
// @Description Ранжирует все вакансии по профилю кандидата. Фильтры применяются к ранжированному списку.
// @Tags        Подбор
// @Produce     json
// @Param       id            path  string true  "ID кандидата"
// @Param       limit         query int    false "Максимум результатов (по умолчанию 100)"
// @Param       use_cache     query bool   false "Использовать кэш (по умолчанию true)"
// @Param       min_score     query number false "Минимальный общий балл"
// @Param       work_mode     query string false "Форматы работы через запятую"
// @Param       contract_type query string false "Типы контракта через запятую"
// @Param       location      query string false "Локации через запятую"
// @Param       must_have     query string false "Обязательные навыки через запятую"
// @Security    BearerAuth
// @Success     200 {object} matching.Outcome
// @Failure     400 {object} presenter.ErrorResponse
// @Failure     502 {object} presenter.ErrorResponse
// @Router      /candidates/{id}/matches [get]
func (h *MatchHandler) List(c *fiber.Ctx) error {
	id, status, msg := candidateID(c)
	if status != 0 {
		return presenter.Error(c, status, msg)
	}
	limit, _ := parseLimitOffset(c, 0)
	opts := matching.Options{
		Limit:     limit,
		SkipCache: !c.QueryBool("use_cache", true),
		Filters: filter.Spec{
			WorkMode:       splitList(c.Query("work_mode")),
			ContractType:   splitList(c.Query("contract_type")),
			Location:       splitList(c.Query("location")),
			MustHaveSkills: splitList(c.Query("must_have")),
		},
	}
	if v := strings.TrimSpace(c.Query("min_score")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return presenter.Error(c, http.StatusBadRequest, "min_score должен быть числом")
		}
		opts.Filters.MinScore = &f
	}
	out, err := h.uc.Match(c.Context(), id, opts)
	if err != nil {
		h.log.Error("match failed", zap.String("candidate_id", id), zap.Error(err))
		return presenter.Fail(c, err)
	}
	return presenter.JSON(c, http.StatusOK, out)
}

// @Summary     Подбор вакансий с фильтрами в теле запроса
// @Tags        Подбор
// @Accept      json
// @Produce     json
// @Param       id    path string        true "ID кандидата"
// @Param       input body searchRequest true "Фильтры"
// @Security    BearerAuth
// @Success     200 {object} matching.Outcome
// @Failure     400 {object} map[string]any
// @Router      /candidates/{id}/matches/search [post]
func (h *MatchHandler) Search(c *fiber.Ctx) error {
	id, status, msg := candidateID(c)
	if status != 0 {
		return presenter.Error(c, status, msg)
	}
	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}
	res, err := h.search.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "невалидный JSON")
	}
	if !res.Valid() {
		details := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			details = append(details, e.String())
		}
		return presenter.JSON(c, http.StatusBadRequest, fiber.Map{"message": "невалидные фильтры", "details": details})
	}
	var req searchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "невалидный JSON")
	}
	opts := matching.Options{Limit: req.Limit, Filters: req.Spec}
	if req.UseCache != nil {
		opts.SkipCache = !*req.UseCache
	}
	out, err := h.uc.Match(c.Context(), id, opts)
	if err != nil {
		h.log.Error("match failed", zap.String("candidate_id", id), zap.Error(err))
		return presenter.Fail(c, err)
	}
	return presenter.JSON(c, http.StatusOK, out)
}

// @Summary     Сохранить текущий подбор
// @Description Сохраняет результаты из кэша (или вычисляет их заново) и уведомляет подписчиков.
// @Tags        Подбор
// @Produce     json
// @Param       id path string true "ID кандидата"
// @Security    BearerAuth
// @Success     200 {object} map[string]int
// @Failure     503 {object} presenter.ErrorResponse
// @Router      /candidates/{id}/matches/save [post]
func (h *MatchHandler) Save(c *fiber.Ctx) error {
	id, status, msg := candidateID(c)
	if status != 0 {
		return presenter.Error(c, status, msg)
	}
	n, err := h.uc.SaveResults(c.Context(), id)
	if err != nil {
		h.log.Error("save failed", zap.String("candidate_id", id), zap.Error(err))
		return presenter.Fail(c, err)
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"saved": n})
}

// @Summary  Сохранённые результаты подбора
// @Tags     Подбор
// @Produce  json
// @Param    id     path  string true  "ID кандидата"
// @Param    limit  query int    false "Размер страницы (по умолчанию 50)"
// @Param    offset query int    false "Смещение"
// @Security BearerAuth
// @Success  200 {object} map[string]any
// @Router   /candidates/{id}/matches/saved [get]
func (h *MatchHandler) Saved(c *fiber.Ctx) error {
	id, status, msg := candidateID(c)
	if status != 0 {
		return presenter.Error(c, status, msg)
	}
	limit, offset := parseLimitOffset(c, 50)
	rs, err := h.uc.LoadSavedResults(c.Context(), id, limit, offset)
	if err != nil {
		h.log.Error("load saved failed", zap.String("candidate_id", id), zap.Error(err))
		return presenter.Fail(c, err)
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"results": rs, "limit": limit, "offset": offset})
}
