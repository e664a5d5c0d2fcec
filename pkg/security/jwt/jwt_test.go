package jwt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(NewAuthMiddleware("secret", "jobmatch"))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"sub": Subject(c), "admin": IsAdmin(c)})
	})
	app.Get("/admin", RequireAdmin(), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })
	return app
}

func call(t *testing.T, app *fiber.App, path, header string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	tok, err := NewGenerator("secret", "jobmatch", time.Hour).Generate(context.Background(), "cand-1", false)
	require.NoError(t, err)
	app := newApp()

	for _, h := range []string{"Bearer " + tok, tok} {
		code, body := call(t, app, "/me", h)
		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"sub":"cand-1","admin":false}`, body)
	}

	code, _ := call(t, app, "/me?access_token="+tok, "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = call(t, app, "/admin", "Bearer "+tok)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestMiddlewareAdmin(t *testing.T) {
	tok, err := NewGenerator("secret", "jobmatch", time.Hour).Generate(context.Background(), "ops", true)
	require.NoError(t, err)
	code, _ := call(t, newApp(), "/admin", "Bearer "+tok)
	assert.Equal(t, http.StatusNoContent, code)
}

func TestMiddlewareRejects(t *testing.T) {
	app := newApp()
	ctx := context.Background()

	wrongSecret, err := NewGenerator("other", "jobmatch", time.Hour).Generate(ctx, "c", false)
	require.NoError(t, err)
	wrongIssuer, err := NewGenerator("secret", "someone-else", time.Hour).Generate(ctx, "c", false)
	require.NoError(t, err)
	expiredGen := NewGenerator("secret", "jobmatch", time.Minute)
	expiredGen.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := expiredGen.Generate(ctx, "c", false)
	require.NoError(t, err)

	tests := map[string]string{
		"missing":      "",
		"garbage":      "Bearer not-a-token",
		"wrong secret": "Bearer " + wrongSecret,
		"wrong issuer": "Bearer " + wrongIssuer,
		"expired":      "Bearer " + expired,
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			code, _ := call(t, app, "/me", header)
			assert.Equal(t, http.StatusUnauthorized, code)
		})
	}
}

func TestGenerateRequiresSubject(t *testing.T) {
	_, err := NewGenerator("secret", "jobmatch", time.Hour).Generate(context.Background(), " ", false)
	assert.Error(t, err)
}
