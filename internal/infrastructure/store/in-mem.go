package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shortly/shortly/internal/entity"
)

// InMemLinkStore is a map-backed document store. It backs the app when no
// real store is reachable, and doubles as the deterministic test double: it
// can replay the two failure modes of the real store — search-visibility lag
// and create conflicts — on demand.
type InMemLinkStore struct {
	mutex  sync.RWMutex
	links  map[string]entity.Link
	bySlug map[string]string
	nextID int

	visibilityLag int
	hidden        map[string]int
	failCreates   int
	failSearches  int
	searches      int
}

func NewInMemLinkStore() *InMemLinkStore {
	return &InMemLinkStore{
		links:  make(map[string]entity.Link),
		bySlug: make(map[string]string),
		hidden: make(map[string]int),
	}
}

// SetVisibilityLag makes links created from now on invisible to FindByField
// for the next n searches, imitating the store's near-real-time indexing.
func (s *InMemLinkStore) SetVisibilityLag(n int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.visibilityLag = n
}

// FailNextCreates makes the next n Create calls report ErrConflict.
func (s *InMemLinkStore) FailNextCreates(n int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.failCreates = n
}

// FailNextSearches makes the next n FindByField calls report ErrUnavailable.
func (s *InMemLinkStore) FailNextSearches(n int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.failSearches = n
}

// Len reports how many links are persisted, visible or not.
func (s *InMemLinkStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.links)
}

// Searches reports how many FindByField calls were issued.
func (s *InMemLinkStore) Searches() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.searches
}

// Seed inserts a link verbatim, bypassing the conflict check, so tests can
// model pre-existing state including orphaned duplicates.
func (s *InMemLinkStore) Seed(link entity.Link) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if link.ID == "" {
		s.nextID++
		link.ID = fmt.Sprintf("%08d", s.nextID)
	}
	s.links[link.ID] = link
	s.bySlug[link.Slug] = link.ID
}

func (s *InMemLinkStore) FindByField(ctx context.Context, field Field, value string) ([]entity.Link, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.searches++

	if s.failSearches > 0 {
		s.failSearches--
		s.tickVisibility()
		return nil, ErrUnavailable
	}

	var found []entity.Link
	for id, link := range s.links {
		if s.hidden[id] > 0 {
			continue
		}
		switch field {
		case FieldSlug:
			if link.Slug == value {
				found = append(found, link)
			}
		case FieldOriginalURL:
			if link.OriginalURL == value {
				found = append(found, link)
			}
		}
	}

	s.tickVisibility()

	return found, nil
}

func (s *InMemLinkStore) Create(ctx context.Context, link entity.Link) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.failCreates > 0 {
		s.failCreates--
		return "", ErrConflict
	}
	if _, taken := s.bySlug[link.Slug]; taken {
		return "", ErrConflict
	}

	s.nextID++
	link.ID = fmt.Sprintf("%08d", s.nextID)
	link.CreatedAt = time.Now().UTC()

	s.links[link.ID] = link
	s.bySlug[link.Slug] = link.ID
	if s.visibilityLag > 0 {
		s.hidden[link.ID] = s.visibilityLag
	}

	return link.ID, nil
}

func (s *InMemLinkStore) GetByID(ctx context.Context, id string) (entity.Link, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	link, ok := s.links[id]
	if !ok {
		return entity.Link{}, ErrNotFound
	}
	return link, nil
}

func (s *InMemLinkStore) Ping(ctx context.Context) error {
	return nil
}

func (s *InMemLinkStore) Close(ctx context.Context) error {
	return nil
}

// tickVisibility ages hidden links by one search; called with the lock held.
func (s *InMemLinkStore) tickVisibility() {
	for id, left := range s.hidden {
		if left <= 1 {
			delete(s.hidden, id)
		} else {
			s.hidden[id] = left - 1
		}
	}
}
