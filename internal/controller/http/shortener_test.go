package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortly/shortly/config"
	"github.com/shortly/shortly/internal/entity"
	"github.com/shortly/shortly/internal/infrastructure/quota"
	"github.com/shortly/shortly/internal/infrastructure/store"
	"github.com/shortly/shortly/internal/usecase"
	"github.com/shortly/shortly/pkg/logger"
)

var log = logger.NewMockLogger()

func prepareApp(st *store.InMemLinkStore, guard quota.Guard) *fiber.App {
	if st == nil {
		st = store.NewInMemLinkStore()
	}
	if guard == nil {
		guard = quota.NewStubGuard()
	}

	app := fiber.New()

	uc := usecase.NewShortener(config.Shortener{
		BaseURL:       "http://short.ly",
		SlugLength:    7,
		CreateRetries: 2,
	}, st, guard, usecase.NewSlugGenerator(usecase.NewRandomSource(), 7, 5), log)

	NewShortenerController(app, uc, log)

	return app
}

func sendRequest(t *testing.T, app *fiber.App, req *http.Request) ([]byte, *http.Response) {
	t.Helper()

	resp, err := app.Test(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return body, resp
}

func createRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "http://short.ly/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateLink(t *testing.T) {
	type want struct {
		code          int
		slugRespected *bool
		shortURL      string
	}
	boolPtr := func(b bool) *bool { return &b }

	tests := []struct {
		name string
		req  string
		want want
	}{
		{
			name: "empty request",
			req:  ``,
			want: want{
				code: 400,
			},
		},
		{
			name: "missing url",
			req:  `{"slug": "abcdefg"}`,
			want: want{
				code: 400,
			},
		},
		{
			name: "generated slug",
			req:  `{"url": "www.happyweekend.com"}`,
			want: want{
				code:          201,
				slugRespected: boolPtr(false),
			},
		},
		{
			name: "custom slug",
			req:  `{"url": "www.happyweekend.com", "slug": "abcdefg"}`,
			want: want{
				code:          201,
				slugRespected: boolPtr(true),
				shortURL:      "http://short.ly/abcdefg",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := prepareApp(nil, nil)

			body, resp := sendRequest(t, app, createRequest(tt.req))

			assert.Equal(t, tt.want.code, resp.StatusCode)

			if tt.want.code != 201 {
				var errResp map[string]any
				require.NoError(t, json.Unmarshal(body, &errResp))
				assert.Contains(t, errResp, "error")
				return
			}

			var respJSON createLinkResponse
			require.NoError(t, json.Unmarshal(body, &respJSON))

			assert.Equal(t, "www.happyweekend.com", respJSON.OriginalURL)
			require.NotNil(t, respJSON.SlugRespected)
			assert.Equal(t, *tt.want.slugRespected, *respJSON.SlugRespected)
			if tt.want.shortURL != "" {
				assert.Equal(t, tt.want.shortURL, respJSON.ShortURL)
			} else {
				assert.NotEmpty(t, respJSON.ShortURL)
			}
		})
	}
}

func TestCreateLinkExisting(t *testing.T) {
	st := store.NewInMemLinkStore()
	st.Seed(entity.Link{Slug: "Xzwtysz", OriginalURL: "www.happyweekend.com"})

	app := prepareApp(st, nil)

	body, resp := sendRequest(t, app, createRequest(`{"url": "www.happyweekend.com", "slug": "abcdefg"}`))

	assert.Equal(t, 200, resp.StatusCode)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(body, &fields))

	assert.Len(t, fields, 2, "existing link responds with exactly shortUrl and originalUrl")
	assert.Equal(t, "http://short.ly/Xzwtysz", fields["shortUrl"])
	assert.Equal(t, "www.happyweekend.com", fields["originalUrl"])
	assert.Equal(t, 1, st.Len(), "no new write for an existing link")
}

func TestCreateLinkSlugTaken(t *testing.T) {
	st := store.NewInMemLinkStore()
	st.Seed(entity.Link{Slug: "abcdefg", OriginalURL: "www.other.com"})

	app := prepareApp(st, nil)

	body, resp := sendRequest(t, app, createRequest(`{"url": "www.happyweekend.com", "slug": "abcdefg"}`))

	assert.Equal(t, 409, resp.StatusCode)

	var errResp map[string]any
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Contains(t, errResp, "error")
	assert.Equal(t, 1, st.Len())
}

func TestCreateLinkQuotaDenied(t *testing.T) {
	guard := quota.NewStubGuard()
	guard.Deny("creation quota exceeded", time.Minute)

	app := prepareApp(nil, guard)

	body, resp := sendRequest(t, app, createRequest(`{"url": "www.happyweekend.com"}`))

	assert.Equal(t, 503, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))

	var errResp map[string]any
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Contains(t, errResp, "error")
}

func TestCreateLinkQuotaDeniedWithoutHint(t *testing.T) {
	guard := quota.NewStubGuard()
	guard.Deny("creation quota exceeded", 0)

	app := prepareApp(nil, guard)

	_, resp := sendRequest(t, app, createRequest(`{"url": "www.happyweekend.com"}`))

	assert.Equal(t, 503, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(fiber.HeaderRetryAfter), "no header without a backoff hint")
}

func TestResolveLink(t *testing.T) {
	st := store.NewInMemLinkStore()
	st.Seed(entity.Link{Slug: "Xzwtysz", OriginalURL: "www.xyz.com"})

	app := prepareApp(st, nil)

	req := httptest.NewRequest(http.MethodGet, "http://short.ly/Xzwtysz", nil)
	_, resp := sendRequest(t, app, req)

	assert.Equal(t, 307, resp.StatusCode)
	assert.Equal(t, "www.xyz.com", resp.Header.Get("Location"))
}

func TestResolveLinkNotFound(t *testing.T) {
	app := prepareApp(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "http://short.ly/missing1", nil)
	body, resp := sendRequest(t, app, req)

	assert.Equal(t, 404, resp.StatusCode)

	var errResp map[string]any
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Contains(t, errResp, "error")
}

func TestResolveLinkMissingSlug(t *testing.T) {
	st := store.NewInMemLinkStore()

	app := prepareApp(st, nil)

	req := httptest.NewRequest(http.MethodGet, "http://short.ly/", nil)
	body, resp := sendRequest(t, app, req)

	assert.Equal(t, 400, resp.StatusCode)

	var errResp map[string]any
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Contains(t, errResp, "error")
	assert.Equal(t, 0, st.Searches(), "no store access for a missing slug")
}

func TestResolveLinkStoreUnavailable(t *testing.T) {
	st := store.NewInMemLinkStore()
	st.FailNextSearches(1)

	app := prepareApp(st, nil)

	req := httptest.NewRequest(http.MethodGet, "http://short.ly/Xzwtysz", nil)
	body, resp := sendRequest(t, app, req)

	assert.Equal(t, 503, resp.StatusCode)

	var errResp map[string]any
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Contains(t, errResp, "error")
}
