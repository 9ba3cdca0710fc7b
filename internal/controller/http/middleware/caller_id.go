package middleware

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/shortly/shortly/internal/entity"
	"github.com/shortly/shortly/internal/infrastructure/crypto"
	"github.com/shortly/shortly/pkg/logger"
)

const (
	CookieCallerName = "Caller-Token"
	CookieCallerAge  = 24 * time.Hour
)

type (
	CallerIDConfig struct {
		Cipher crypto.EncryptorDecryptor
	}
)

// CallerID assigns every client a stable caller UID, carried in an encrypted
// cookie. The usage guard keys quota counters on this UID.
func CallerID(cfg CallerIDConfig, log *logger.Logger) (fiber.Handler, error) {
	return func(c *fiber.Ctx) error {
		var caller *entity.Caller
		var err error

		// Pre-processing
		cookie := c.Cookies(CookieCallerName)
		if cookie != "" {
			// Ignore the error and assign a new caller UID
			caller, _ = cfg.Cipher.Decrypt(c.Context(), cookie)
		}
		if caller == nil {
			caller, err = generateCaller()
			if err != nil {
				return log.Wrap(err, "generate caller UID")
			}
		}

		// Add caller to request context
		c.SetUserContext(
			context.WithValue(c.UserContext(), entity.CallerCtxKey, caller))

		// Go to next middleware/handler
		if err := c.Next(); err != nil {
			return err
		}

		// Post-processing
		// Encrypt the caller UID
		encrypted, err := cfg.Cipher.Encrypt(c.Context(), caller)
		if err != nil {
			return log.Wrap(err, "encrypt caller UID")
		}

		// Add encrypted caller UID as a cookie
		c.Cookie(&fiber.Cookie{
			Name:    CookieCallerName,
			Value:   encrypted,
			Expires: time.Now().Add(CookieCallerAge),
		})

		return nil
	}, nil
}

func generateCaller() (*entity.Caller, error) {
	// Generate random bytes for the caller UID
	uid := make([]byte, 16)
	_, err := rand.Read(uid)
	if err != nil {
		return nil, errors.Wrap(err, "prepare random bytes for caller UID")
	}

	return &entity.Caller{
		UID: uid,
	}, nil
}
