package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/shortly/shortly/internal/entity"
	"github.com/shortly/shortly/internal/usecase"
	"github.com/shortly/shortly/pkg/logger"
)

type ShortenerController struct {
	shortener usecase.Shortener
	log       *logger.Logger
}

func NewShortenerController(router *fiber.App, shortener usecase.Shortener, log *logger.Logger) *ShortenerController {
	c := &ShortenerController{
		shortener: shortener,
		log:       log,
	}

	router.Post("/", c.createLink)
	router.Get("/", c.missingSlug)
	router.Get("/:slug", c.resolveLink)

	return c
}

type createLinkRequest struct {
	URL  string `json:"url"`
	Slug string `json:"slug"`
}

// createLinkResponse is a closed field set: slugRespected appears on the
// creation path only, existing links come back with exactly two fields.
type createLinkResponse struct {
	ShortURL      string `json:"shortUrl"`
	OriginalURL   string `json:"originalUrl"`
	SlugRespected *bool  `json:"slugRespected,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (ctrl *ShortenerController) createLink(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req createLinkRequest
	if err := c.BodyParser(&req); err != nil {
		ctrl.log.Warn(ctx).Msgf("Parse create request: %s", err)
		return ctrl.respondError(c, usecase.ErrMissingURL)
	}

	result, err := ctrl.shortener.Create(ctx, usecase.CreateParams{
		Host:        c.Hostname(),
		OriginalURL: req.URL,
		Slug:        req.Slug,
		Caller:      callerKey(c),
	})
	if err != nil {
		return ctrl.respondError(c, err)
	}

	status := http.StatusCreated
	if result.Existing {
		status = http.StatusOK
	}

	c.Status(status)
	return c.JSON(createLinkResponse{
		ShortURL:      result.ShortURL,
		OriginalURL:   result.OriginalURL,
		SlugRespected: result.SlugRespected,
	})
}

func (ctrl *ShortenerController) resolveLink(c *fiber.Ctx) error {
	ctx := c.UserContext()

	longURL, err := ctrl.shortener.Resolve(ctx, callerKey(c), c.Params("slug"))
	if err != nil {
		return ctrl.respondError(c, err)
	}

	return c.Redirect(longURL, http.StatusTemporaryRedirect)
}

func (ctrl *ShortenerController) missingSlug(c *fiber.Ctx) error {
	return ctrl.respondError(c, usecase.ErrMissingSlug)
}

func (ctrl *ShortenerController) respondError(c *fiber.Ctx, err error) error {
	ctx := c.UserContext()

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		ctrl.log.Error(ctx, err).Msg("Request failed")
	}

	var quotaErr *usecase.QuotaExceededError
	if errors.As(err, &quotaErr) && quotaErr.RetryAfter > 0 {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(quotaErr.RetryAfter)))
	}

	c.Status(status)
	return c.JSON(errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrMissingURL),
		errors.Is(err, usecase.ErrInvalidURL),
		errors.Is(err, usecase.ErrMissingSlug):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrLinkNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrSlugTaken):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrQuotaExceeded),
		errors.Is(err, usecase.ErrQuotaUnavailable),
		errors.Is(err, usecase.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// retryAfterSeconds rounds the guard's backoff hint up to whole seconds, the
// granularity of the Retry-After header.
func retryAfterSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}

// callerKey prefers the caller UID assigned by the identity middleware and
// falls back to the client address before the first cookie round-trip.
func callerKey(c *fiber.Ctx) string {
	if caller := entity.CallerFromContext(c.UserContext()); caller != nil {
		return caller.String()
	}
	return c.IP()
}
