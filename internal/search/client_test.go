package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "test-key", BaseURL: srv.URL, MaxResults: 2}, zap.NewNop())
}

func TestSearchNewsFirstPriorityOrdering(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		require.Equal(t, "nws", r.URL.Query().Get("tbm"))
		json.NewEncoder(w).Encode(map[string]any{
			"news_results": []map[string]any{
				{"title": "Blog take", "link": "https://example.com/a", "source": map[string]any{"name": "Example"}, "snippet": "s1", "date": "today"},
				{"title": "Fact check", "link": "https://www.snopes.com/fact-check/x", "source": "Snopes", "snippet": "s2", "date": "today"},
			},
		})
	})

	results, err := c.Search(context.Background(), "did the thing happen")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "Fact check", results[0].Title)
	require.Equal(t, "news", results[0].Category)
	require.Equal(t, "Snopes", results[0].Source)
}

func TestSearchOrganicFallback(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"news_results": []map[string]any{
				{"title": "Only news hit", "link": "https://example.com/n", "source": "Example"},
			},
			"organic_results": []map[string]any{
				{"title": "Organic hit", "link": "https://reuters.com/article", "displayed_link": "reuters.com"},
			},
		})
	})

	results, err := c.Search(context.Background(), "some verifiable claim")
	require.NoError(t, err)
	require.Len(t, results, 2)
	// the organic priority-domain hit sorts ahead of the plain news hit
	require.Equal(t, "organic", results[0].Category)
	require.Equal(t, "Organic hit", results[0].Title)
}

func TestSearchCapsResults(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"news_results": []map[string]any{
				{"title": "one", "link": "https://a.example.com"},
				{"title": "two", "link": "https://b.example.com"},
				{"title": "three", "link": "https://c.example.com"},
			},
		})
	})

	results, err := c.Search(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestSearchTruncatesLongQuery(t *testing.T) {
	t.Parallel()

	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("q")
		json.NewEncoder(w).Encode(map[string]any{
			"news_results": []map[string]any{{"title": "x", "link": "https://x.example.com"}},
		})
	})

	_, err := c.Search(context.Background(), strings.Repeat("q", 600))
	require.NoError(t, err)
	require.Len(t, got, 500)
}

func TestSearchAPIError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "rate limited"})
	})

	_, err := c.Search(context.Background(), "query")
	require.ErrorContains(t, err, "rate limited")
}

func TestSearchEmptyQueryAndMissingKey(t *testing.T) {
	t.Parallel()

	c := New(Config{APIKey: "k"}, zap.NewNop())
	_, err := c.Search(context.Background(), "   ")
	require.Error(t, err)

	c = New(Config{}, zap.NewNop())
	_, err = c.Search(context.Background(), "query")
	require.ErrorContains(t, err, "not configured")
}

func TestSearchNoResultsIsNotAnError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	})

	results, err := c.Search(context.Background(), "obscure query")
	require.NoError(t, err)
	require.Empty(t, results)
}
