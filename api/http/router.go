package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/jobmatch/api/http/handlers"
	"github.com/artem13815/jobmatch/pkg/security/jwt"
)

// Register wires all HTTP routes onto given Fiber app.
func Register(app *fiber.App, auth fiber.Handler, health *handlers.HealthHandler, match *handlers.MatchHandler) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", health.Health)
	v1.Get("/ready", health.Ready)

	cg := v1.Group("/candidates/:id", auth)
	cg.Get("/matches", match.List)
	cg.Post("/matches/search", match.Search)
	cg.Post("/matches/save", match.Save)
	cg.Get("/matches/saved", match.Saved)
	cg.Get("/matches/stream", match.Stream)

	cache := v1.Group("/cache", auth)
	cache.Delete("/", jwt.RequireAdmin(), match.ClearAll)
	cache.Get("/stats", jwt.RequireAdmin(), match.Stats)
	cache.Delete("/:id", match.Clear)
}
