package store

import (
	"context"
	"errors"

	"github.com/shortly/shortly/internal/entity"
)

// Field names a searchable link attribute.
type Field string

const (
	FieldSlug        Field = "slug"
	FieldOriginalURL Field = "original_url"
)

var (
	// ErrConflict reports that a link with the same slug is already indexed.
	ErrConflict = errors.New("link with the same slug already exists")
	// ErrNotFound reports that no link matches the given id.
	ErrNotFound = errors.New("link not found")
	// ErrUnavailable reports a transport failure or timeout. It is never
	// a statement about whether a link exists.
	ErrUnavailable = errors.New("link store is unavailable")
)

// LinkStore is the port to the backing document store. Searches are
// near-real-time: a just-created link may be invisible to FindByField for a
// short interval, so callers must treat search results as advisory. Create is
// the sole authority on slug uniqueness.
type LinkStore interface {
	FindByField(ctx context.Context, field Field, value string) ([]entity.Link, error)
	Create(ctx context.Context, link entity.Link) (string, error)
	GetByID(ctx context.Context, id string) (entity.Link, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
