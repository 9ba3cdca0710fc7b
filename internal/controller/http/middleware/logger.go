package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/shortly/shortly/pkg/logger"
)

func Logger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Log request, except for the body (will log it later)
		log.Info(c.UserContext()).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("-> New request")

		err := c.Next()

		var msg *zerolog.Event

		// Different log level depending on status code
		code := c.Response().StatusCode()
		switch {
		case code >= 400 && code < 500:
			msg = log.Warn(c.UserContext())
		case code >= 500:
			msg = log.Error(c.UserContext(), errors.New(http.StatusText(code)))
		default:
			msg = log.Info(c.UserContext())
		}

		// Add common fields
		msg.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("code", code).
			Str("status", http.StatusText(code))

		// Add url query
		if query := string(c.Request().URI().QueryString()); query != "" {
			msg.Str("query", query)
		}

		// Add request body
		if body := c.Body(); len(body) > 0 {
			if strings.Contains(string(c.Request().Header.ContentType()), "application/json") {
				msg.RawJSON("request", body)
			} else {
				msg.Bytes("request", body)
			}
		}

		// Add response body
		if body := c.Response().Body(); len(body) > 0 {
			if strings.Contains(string(c.Response().Header.ContentType()), "application/json") {
				msg.RawJSON("response", body)
			} else {
				msg.Bytes("response", body)
			}
		}

		msg.Msg("<- Request handled")

		return err
	}
}
