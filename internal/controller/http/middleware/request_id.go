package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/shortly/shortly/pkg/logger"
)

type requestIDCtxKey struct{}

func RequestID(log *logger.Logger) fiber.Handler {
	log.RegisterHook(func(ctx context.Context) (string, string) {
		if val, ok := ctx.Value(requestIDCtxKey{}).(string); ok {
			return "request_id", val
		}
		return "request_id", ""
	})

	return func(c *fiber.Ctx) error {
		c.SetUserContext(
			context.WithValue(c.UserContext(), requestIDCtxKey{}, uuid.NewString()))
		return c.Next()
	}
}
