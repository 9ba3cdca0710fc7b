package usecase

import (
	"errors"
	"time"
)

var (
	ErrMissingURL         = errors.New("url parameter is missing")
	ErrInvalidURL         = errors.New("provided URL is invalid")
	ErrMissingSlug        = errors.New("slug parameter is missing")
	ErrLinkNotFound       = errors.New("no link found for this slug")
	ErrSlugTaken          = errors.New("requested slug is already taken")
	ErrSlugSpaceExhausted = errors.New("could not find a free slug")
	ErrCreateConflict     = errors.New("link creation kept conflicting with concurrent writers")
	ErrQuotaExceeded      = errors.New("creation quota exceeded")
	ErrQuotaUnavailable   = errors.New("usage guard is unavailable")
	ErrStoreUnavailable   = errors.New("link store is unavailable")
)

// QuotaExceededError carries the guard's backoff hint alongside the denial,
// so the transport layer can tell the caller when to retry. It matches
// ErrQuotaExceeded under errors.Is.
type QuotaExceededError struct {
	RetryAfter time.Duration
}

func (e *QuotaExceededError) Error() string {
	return ErrQuotaExceeded.Error()
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}
