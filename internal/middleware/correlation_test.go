package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func newCorrelatedApp(capture *string) *fiber.App {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/ping", func(c *fiber.Ctx) error {
		*capture = CorrelationIDFromContext(c.UserContext())
		return c.SendString(GetCorrelationID(c))
	})
	return app
}

func TestCorrelationIDHonoursClientHeader(t *testing.T) {
	var fromContext string
	app := newCorrelatedApp(&fromContext)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderCorrelationID, "client-supplied-id")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "client-supplied-id", resp.Header.Get(HeaderCorrelationID))
	require.Equal(t, "client-supplied-id", fromContext)
}

func TestCorrelationIDGeneratedWhenAbsent(t *testing.T) {
	var fromContext string
	app := newCorrelatedApp(&fromContext)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Header.Get(HeaderCorrelationID))
	require.Equal(t, resp.Header.Get(HeaderCorrelationID), fromContext)
}

func TestCorrelationIDFromContextWithoutValue(t *testing.T) {
	require.Empty(t, CorrelationIDFromContext(context.Background()))
	require.Empty(t, CorrelationIDFromContext(nil))
}
