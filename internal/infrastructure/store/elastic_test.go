package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortly/shortly/config"
	"github.com/shortly/shortly/internal/entity"
	"github.com/shortly/shortly/pkg/logger"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func esResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header: http.Header{
			"X-Elastic-Product": []string{"Elasticsearch"},
			"Content-Type":      []string{"application/json"},
		},
		Body: io.NopCloser(strings.NewReader(body)),
	}
}

type capturedRequest struct {
	method string
	path   string
	body   string
}

// prepareElasticStore wires the store to a scripted transport and records
// every request it issues.
func prepareElasticStore(t *testing.T, respond func(req capturedRequest) *http.Response) (*ElasticStore, *[]capturedRequest) {
	t.Helper()

	var requests []capturedRequest

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://elastic.test:9200"},
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			captured := capturedRequest{
				method: req.Method,
				path:   req.URL.Path,
			}
			if req.Body != nil {
				body, err := io.ReadAll(req.Body)
				require.NoError(t, err)
				captured.body = string(body)
			}
			requests = append(requests, captured)
			return respond(captured), nil
		}),
	})
	require.NoError(t, err)

	st, err := newElasticStore(context.Background(), client, config.Elastic{
		Addresses: []string{"http://elastic.test:9200"},
		Index:     "links",
		Timeout:   time.Second,
	}, logger.NewMockLogger())
	require.NoError(t, err)

	return st, &requests
}

func respondOK(req capturedRequest) *http.Response {
	return esResponse(http.StatusOK, `{}`)
}

func TestElasticCreatesKeywordMappedIndex(t *testing.T) {
	_, requests := prepareElasticStore(t, respondOK)

	var indexCreate *capturedRequest
	for i, req := range *requests {
		if req.method == http.MethodPut && req.path == "/links" {
			indexCreate = &(*requests)[i]
		}
	}
	require.NotNil(t, indexCreate, "index must be created at startup")

	var mapping struct {
		Mappings struct {
			Properties map[string]struct {
				Type string `json:"type"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal([]byte(indexCreate.body), &mapping))

	// Analyzed text mappings would lowercase slugs and tokenize URLs,
	// breaking exact matching
	assert.Equal(t, "keyword", mapping.Mappings.Properties["slug"].Type)
	assert.Equal(t, "keyword", mapping.Mappings.Properties["original_url"].Type)
}

func TestElasticToleratesExistingIndex(t *testing.T) {
	st, _ := prepareElasticStore(t, func(req capturedRequest) *http.Response {
		if req.method == http.MethodPut && req.path == "/links" {
			return esResponse(http.StatusBadRequest,
				`{"error":{"type":"resource_already_exists_exception"}}`)
		}
		return esResponse(http.StatusOK, `{}`)
	})

	require.NotNil(t, st)
}

func TestElasticFindByFieldTermQuery(t *testing.T) {
	st, requests := prepareElasticStore(t, func(req capturedRequest) *http.Response {
		if req.path == "/links/_search" {
			return esResponse(http.StatusOK, `{
				"hits": {
					"total": {"value": 1},
					"hits": [{
						"_id": "Xzwtysz",
						"_source": {
							"slug": "Xzwtysz",
							"original_url": "www.xyz.com",
							"created_at": "2023-05-01T10:00:00Z"
						}
					}]
				}
			}`)
		}
		return esResponse(http.StatusOK, `{}`)
	})

	links, err := st.FindByField(context.Background(), FieldSlug, "Xzwtysz")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "Xzwtysz", links[0].Slug)
	assert.Equal(t, "www.xyz.com", links[0].OriginalURL)

	search := (*requests)[len(*requests)-1]
	assert.Equal(t, "/links/_search", search.path)

	var query struct {
		Query struct {
			Term map[string]struct {
				Value string `json:"value"`
			} `json:"term"`
		} `json:"query"`
	}
	require.NoError(t, json.Unmarshal([]byte(search.body), &query))

	// The exact term, case preserved, against the keyword-mapped field
	require.Contains(t, query.Query.Term, "slug")
	assert.Equal(t, "Xzwtysz", query.Query.Term["slug"].Value)
}

func TestElasticCreateConflict(t *testing.T) {
	st, requests := prepareElasticStore(t, func(req capturedRequest) *http.Response {
		if strings.HasPrefix(req.path, "/links/_create/") {
			return esResponse(http.StatusConflict,
				`{"error":{"type":"version_conflict_engine_exception"}}`)
		}
		return esResponse(http.StatusOK, `{}`)
	})

	_, err := st.Create(context.Background(), entity.Link{Slug: "Xzwtysz", OriginalURL: "www.xyz.com"})
	require.ErrorIs(t, err, ErrConflict)

	create := (*requests)[len(*requests)-1]
	assert.Equal(t, "/links/_create/Xzwtysz", create.path,
		"the slug doubles as the document id")
}
