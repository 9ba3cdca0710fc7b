package usecase

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/shortly/shortly/config"
	"github.com/shortly/shortly/internal/entity"
	"github.com/shortly/shortly/internal/infrastructure/quota"
	"github.com/shortly/shortly/internal/infrastructure/store"
	"github.com/shortly/shortly/pkg/logger"
)

const recordTimeout = 2 * time.Second

// ShortenerUC orchestrates link creation and resolution over an
// eventually-consistent document store. Existence and availability searches
// are advisory; the store's conditional create decides slug ownership, and a
// detected conflict turns into one more informed attempt instead of a
// duplicate record.
type ShortenerUC struct {
	baseURL    string
	maxRetries int

	linkStore store.LinkStore
	guard     quota.Guard
	sluggen   *SlugGenerator
	log       *logger.Logger
}

func NewShortener(cfg config.Shortener,
	linkStore store.LinkStore,
	guard quota.Guard,
	sluggen *SlugGenerator,
	log *logger.Logger) *ShortenerUC {

	maxRetries := cfg.CreateRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}

	return &ShortenerUC{
		baseURL:    cfg.BaseURL,
		maxRetries: maxRetries,
		linkStore:  linkStore,
		guard:      guard,
		sluggen:    sluggen,
		log:        log,
	}
}

func (uc *ShortenerUC) Create(ctx context.Context, params CreateParams) (*entity.LinkResult, error) {
	if err := validateURL(params.OriginalURL); err != nil {
		return nil, err
	}

	verdict, err := uc.guard.Check(ctx, params.Caller)
	if err != nil {
		uc.log.Error(ctx, err).Msg("usage guard check")
		return nil, ErrQuotaUnavailable
	}
	if !verdict.Allowed {
		uc.log.Warn(ctx).Msgf("Caller %s denied: %s", params.Caller, verdict.Reason)
		return nil, &QuotaExceededError{RetryAfter: verdict.RetryAfter}
	}

	for attempt := 0; attempt <= uc.maxRetries; attempt++ {
		result, err := uc.attemptCreate(ctx, params)
		if errors.Is(err, store.ErrConflict) {
			// A racing writer claimed the slug between our availability
			// check and the persist; re-run the checks with fresher state
			uc.log.Warn(ctx).Msgf("Create conflict for %q, reconciling (attempt %d)", params.OriginalURL, attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}

		uc.recordUsage(ctx, params.Caller, quota.EventCreate)
		return result, nil
	}

	return nil, ErrCreateConflict
}

func (uc *ShortenerUC) attemptCreate(ctx context.Context, params CreateParams) (*entity.LinkResult, error) {
	existing, err := uc.linkStore.FindByField(ctx, store.FieldOriginalURL, params.OriginalURL)
	if err != nil {
		return nil, uc.storeErr(ctx, err, "search link by original url")
	}
	if len(existing) > 0 {
		link := canonical(existing)
		return &entity.LinkResult{
			ShortURL:    uc.shortURL(params.Host, link.Slug),
			OriginalURL: link.OriginalURL,
			Existing:    true,
		}, nil
	}

	slug, respected, err := uc.resolveSlug(ctx, params.Slug)
	if err != nil {
		return nil, err
	}

	id, err := uc.linkStore.Create(ctx, entity.Link{
		Slug:        slug,
		OriginalURL: params.OriginalURL,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, err
		}
		return nil, uc.storeErr(ctx, err, "persist link")
	}

	// The store cannot enforce uniqueness on the original URL, so a racing
	// writer may have persisted the same URL under another slug. Re-query and
	// surface the earliest record as canonical; losing this race is not an
	// error, both callers converge on the same short URL.
	if winner, ok := uc.duplicateWinner(ctx, params.OriginalURL, id); ok {
		return &entity.LinkResult{
			ShortURL:    uc.shortURL(params.Host, winner.Slug),
			OriginalURL: winner.OriginalURL,
			Existing:    true,
		}, nil
	}

	return &entity.LinkResult{
		ShortURL:      uc.shortURL(params.Host, slug),
		OriginalURL:   params.OriginalURL,
		SlugRespected: &respected,
	}, nil
}

func (uc *ShortenerUC) resolveSlug(ctx context.Context, custom string) (slug string, respected bool, err error) {
	if custom != "" {
		used, err := uc.slugTaken(ctx, custom)
		if err != nil {
			return "", false, uc.storeErr(ctx, err, "search link by slug")
		}
		if used {
			// A caller-chosen slug is a hard request, never substituted
			return "", false, ErrSlugTaken
		}
		return custom, true, nil
	}

	slug, err = uc.sluggen.Generate(ctx, uc.slugTaken)
	if err != nil {
		if errors.Is(err, ErrSlugSpaceExhausted) {
			return "", false, err
		}
		return "", false, uc.storeErr(ctx, err, "search link by slug")
	}
	return slug, false, nil
}

func (uc *ShortenerUC) Resolve(ctx context.Context, caller, slug string) (string, error) {
	if slug == "" {
		return "", ErrMissingSlug
	}

	links, err := uc.linkStore.FindByField(ctx, store.FieldSlug, slug)
	if err != nil {
		return "", uc.storeErr(ctx, err, "search link by slug")
	}
	if len(links) == 0 {
		return "", ErrLinkNotFound
	}

	link := canonical(links)

	uc.recordUsage(ctx, caller, quota.EventResolve)

	return link.OriginalURL, nil
}

// slugTaken normalizes "is this slug in use?" to a hit count, regardless of
// the shape of the store's response.
func (uc *ShortenerUC) slugTaken(ctx context.Context, slug string) (bool, error) {
	links, err := uc.linkStore.FindByField(ctx, store.FieldSlug, slug)
	if err != nil {
		return false, err
	}
	return len(links) > 0, nil
}

// duplicateWinner reports whether a link other than ours is canonical for the
// original URL. Best-effort: a failed or stale re-query keeps our own record.
func (uc *ShortenerUC) duplicateWinner(ctx context.Context, originalURL, ownID string) (entity.Link, bool) {
	links, err := uc.linkStore.FindByField(ctx, store.FieldOriginalURL, originalURL)
	if err != nil {
		uc.log.Warn(ctx).Msgf("Post-create re-query for %q: %s", originalURL, err)
		return entity.Link{}, false
	}
	if len(links) == 0 {
		return entity.Link{}, false
	}

	winner := canonical(links)
	if winner.ID == ownID {
		return entity.Link{}, false
	}
	return winner, true
}

func (uc *ShortenerUC) recordUsage(ctx context.Context, caller, event string) {
	go func() {
		recordCtx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := uc.guard.Record(recordCtx, caller, event); err != nil {
			uc.log.Warn(recordCtx).Msgf("Record %s usage for %s: %s", event, caller, err)
		}
	}()
}

func (uc *ShortenerUC) storeErr(ctx context.Context, err error, msg string) error {
	uc.log.Error(ctx, err).Msg(msg)
	return ErrStoreUnavailable
}

func (uc *ShortenerUC) shortURL(host, slug string) string {
	if host == "" {
		return uc.baseURL + "/" + slug
	}
	return "http://" + host + "/" + slug
}

// canonical picks the earliest-created link, breaking ties on the lowest
// store-assigned id, so every caller converges on the same record when the
// store surfaces duplicates.
func canonical(links []entity.Link) entity.Link {
	best := links[0]
	for _, link := range links[1:] {
		switch {
		case link.CreatedAt.Before(best.CreatedAt):
			best = link
		case link.CreatedAt.Equal(best.CreatedAt) && link.ID < best.ID:
			best = link
		}
	}
	return best
}

func validateURL(raw string) error {
	if raw == "" {
		return ErrMissingURL
	}
	if _, err := url.Parse(raw); err != nil {
		return ErrInvalidURL
	}
	return nil
}
