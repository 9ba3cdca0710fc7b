package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortly/shortly/internal/entity"
	"github.com/shortly/shortly/internal/infrastructure/crypto"
	"github.com/shortly/shortly/pkg/logger"
)

var log = logger.NewMockLogger()

func prepareCallerApp(t *testing.T) (*fiber.App, *[]string) {
	t.Helper()

	app := fiber.New()

	callerMiddleware, err := CallerID(CallerIDConfig{
		Cipher: crypto.NewMock(),
	}, log)
	require.NoError(t, err)

	app.Use(callerMiddleware)

	var callers []string
	app.Get("/", func(c *fiber.Ctx) error {
		caller := entity.CallerFromContext(c.UserContext())
		require.NotNil(t, caller)
		callers = append(callers, caller.String())
		return nil
	})

	return app, &callers
}

func TestCallerIDAssignsUID(t *testing.T) {
	app, callers := prepareCallerApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Len(t, *callers, 1)
	assert.NotEmpty(t, (*callers)[0])

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == CookieCallerName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "caller cookie must be set")
	assert.Equal(t, (*callers)[0], cookie.Value, "mock cipher passes the UID through")
}

func TestCallerIDKeepsUIDAcrossRequests(t *testing.T) {
	app, callers := prepareCallerApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	resp.Body.Close()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range resp.Cookies() {
		req.AddCookie(c)
	}

	resp, err = app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Len(t, *callers, 2)
	assert.Equal(t, (*callers)[0], (*callers)[1], "caller UID is stable across requests")
}
