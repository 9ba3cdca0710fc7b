package usecase

import (
	"context"

	"github.com/shortly/shortly/internal/entity"
)

// CreateParams carries one create request through the orchestration core.
type CreateParams struct {
	// Host the request came in on; the short URL is built as http://<host>/<slug>.
	Host string
	// OriginalURL is the long URL to shorten.
	OriginalURL string
	// Slug is the caller-requested slug; empty means generate one.
	Slug string
	// Caller keys the usage quota.
	Caller string
}

type Shortener interface {
	Create(ctx context.Context, params CreateParams) (*entity.LinkResult, error)
	Resolve(ctx context.Context, caller, slug string) (string, error)
}
