package store

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"

	"github.com/shortly/shortly/config"
	"github.com/shortly/shortly/internal/entity"
	"github.com/shortly/shortly/pkg/logger"
)

// ElasticStore keeps links in a single Elasticsearch index. The slug doubles
// as the document id, so indexing with op_type=create is a conditional
// "create if absent by slug": the store, not the advisory searches, enforces
// slug uniqueness.
type ElasticStore struct {
	cfg    config.Elastic
	client *elasticsearch.Client
	log    *logger.Logger
}

type linkDocument struct {
	Slug        string    `json:"slug"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewElasticStore(ctx context.Context, cfg config.Elastic, log *logger.Logger) (*ElasticStore, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[elastic] new client")
	}

	return newElasticStore(ctx, client, cfg, log)
}

func newElasticStore(ctx context.Context, client *elasticsearch.Client, cfg config.Elastic, log *logger.Logger) (*ElasticStore, error) {
	s := &ElasticStore{
		cfg:    cfg,
		client: client,
		log:    log,
	}

	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	if err := s.ensureIndex(ctx); err != nil {
		return nil, err
	}
	log.Debug(ctx).Msgf("Connected to elasticsearch, index %q", cfg.Index)

	return s, nil
}

// ensureIndex creates the link index with explicit keyword mappings. Slug and
// URL matching is exact and case-sensitive, and dynamic mapping would type
// both fields as analyzed text, breaking term queries against them.
func (s *ElasticStore) ensureIndex(ctx context.Context) error {
	cancelCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	mapping := `{
		"mappings": {
			"properties": {
				"slug":         {"type": "keyword"},
				"original_url": {"type": "keyword"},
				"created_at":   {"type": "date"}
			}
		}
	}`
	req := esapi.IndicesCreateRequest{
		Index: s.cfg.Index,
		Body:  strings.NewReader(mapping),
	}
	res, err := req.Do(cancelCtx, s.client)
	if err != nil {
		return errors.Wrapf(ErrUnavailable, "[elastic] create index %q: %s", s.cfg.Index, err)
	}
	defer res.Body.Close()

	// 400 resource_already_exists: the index survived a previous run
	if res.IsError() && res.StatusCode != http.StatusBadRequest {
		return errors.Wrapf(ErrUnavailable, "[elastic] create index %q: %s", s.cfg.Index, res.Status())
	}
	return nil
}

func (s *ElasticStore) Ping(ctx context.Context) error {
	cancelCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	res, err := s.client.Ping(s.client.Ping.WithContext(cancelCtx))
	if err != nil {
		return errors.Wrapf(ErrUnavailable, "[elastic] ping: %s", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.Wrapf(ErrUnavailable, "[elastic] ping: %s", res.Status())
	}
	return nil
}

func (s *ElasticStore) FindByField(ctx context.Context, field Field, value string) ([]entity.Link, error) {
	cancelCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	// Both searchable fields are keyword-mapped (see ensureIndex), so the
	// un-analyzed term query matches exactly and case-sensitively
	query := map[string]any{
		"query": map[string]any{
			"term": map[string]any{
				string(field): map[string]any{"value": value},
			},
		},
	}
	body := bytes.NewBuffer(nil)
	if err := json.NewEncoder(body).Encode(query); err != nil {
		return nil, errors.Wrap(err, "[elastic] encode query")
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(cancelCtx),
		s.client.Search.WithIndex(s.cfg.Index),
		s.client.Search.WithBody(body),
	)
	if err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "[elastic] search %s=%q: %s", field, value, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		// Index not created yet, so nothing is stored
		return nil, nil
	}
	if res.IsError() {
		return nil, errors.Wrapf(ErrUnavailable, "[elastic] search %s=%q: %s", field, value, res.Status())
	}

	// Existence is derived from the decoded hits only; hits.total is ignored
	var decoded struct {
		Hits struct {
			Hits []struct {
				ID     string       `json:"_id"`
				Source linkDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "[elastic] decode search response: %s", err)
	}

	links := make([]entity.Link, 0, len(decoded.Hits.Hits))
	for _, hit := range decoded.Hits.Hits {
		links = append(links, entity.Link{
			ID:          hit.ID,
			Slug:        hit.Source.Slug,
			OriginalURL: hit.Source.OriginalURL,
			CreatedAt:   hit.Source.CreatedAt,
		})
	}
	return links, nil
}

func (s *ElasticStore) Create(ctx context.Context, link entity.Link) (string, error) {
	cancelCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	doc := linkDocument{
		Slug:        link.Slug,
		OriginalURL: link.OriginalURL,
		CreatedAt:   time.Now().UTC(),
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, "[elastic] encode link")
	}

	req := esapi.CreateRequest{
		Index:      s.cfg.Index,
		DocumentID: link.Slug,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(cancelCtx, s.client)
	if err != nil {
		return "", errors.Wrapf(ErrUnavailable, "[elastic] create %q: %s", link.Slug, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusConflict {
		return "", errors.Wrapf(ErrConflict, "[elastic] create %q", link.Slug)
	}
	if res.IsError() {
		return "", errors.Wrapf(ErrUnavailable, "[elastic] create %q: %s", link.Slug, res.Status())
	}

	return link.Slug, nil
}

func (s *ElasticStore) GetByID(ctx context.Context, id string) (entity.Link, error) {
	cancelCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req := esapi.GetRequest{
		Index:      s.cfg.Index,
		DocumentID: id,
	}
	res, err := req.Do(cancelCtx, s.client)
	if err != nil {
		return entity.Link{}, errors.Wrapf(ErrUnavailable, "[elastic] get %q: %s", id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return entity.Link{}, errors.Wrapf(ErrNotFound, "[elastic] get %q", id)
	}
	if res.IsError() {
		return entity.Link{}, errors.Wrapf(ErrUnavailable, "[elastic] get %q: %s", id, res.Status())
	}

	var decoded struct {
		ID     string       `json:"_id"`
		Source linkDocument `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return entity.Link{}, errors.Wrapf(ErrUnavailable, "[elastic] decode get response: %s", err)
	}

	return entity.Link{
		ID:          decoded.ID,
		Slug:        decoded.Source.Slug,
		OriginalURL: decoded.Source.OriginalURL,
		CreatedAt:   decoded.Source.CreatedAt,
	}, nil
}

func (s *ElasticStore) Close(ctx context.Context) error {
	return nil
}
