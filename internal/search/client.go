// Package search implements the external search API client used to find
// evidence candidates for a claim.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/veritaslabs/veritas/internal/claims"
	"github.com/veritaslabs/veritas/internal/metrics"
)

const maxQueryChars = 500

// priorityDomains are fact-checkers and major outlets ranked ahead of other
// hits regardless of result order.
var priorityDomains = []string{
	"snopes.com", "politifact.com", "factcheck.org",
	"reuters.com", "apnews.com", "bbc.com", "npr.org",
	"nytimes.com", "washingtonpost.com", "theguardian.com",
}

// Config controls the search client.
type Config struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	Timeout    time.Duration
}

// Client queries a SerpAPI-compatible endpoint, news results first with an
// organic fallback.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// New builds a Client.
func New(cfg Config, log *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://serpapi.com/search"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 2
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

type apiSource struct {
	Name string
}

func (s *apiSource) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.Name = str
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	s.Name = obj.Name
	return nil
}

type apiResult struct {
	Title         string    `json:"title"`
	Link          string    `json:"link"`
	Source        apiSource `json:"source"`
	DisplayedLink string    `json:"displayed_link"`
	Snippet       string    `json:"snippet"`
	Date          string    `json:"date"`
}

type apiResponse struct {
	Error          string      `json:"error"`
	NewsResults    []apiResult `json:"news_results"`
	OrganicResults []apiResult `json:"organic_results"`
}

// Search executes the query and returns up to MaxResults hits, priority
// domains first.
func (c *Client) Search(ctx context.Context, query string) ([]claims.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if len(query) > maxQueryChars {
		c.log.Warn("query too long, truncating", zap.Int("length", len(query)))
		query = query[:maxQueryChars]
	}
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("search api key not configured")
	}

	resp, err := c.call(ctx, query)
	if err != nil {
		metrics.ObserveSearch("failure")
		return nil, err
	}
	if resp.Error != "" {
		metrics.ObserveSearch("failure")
		return nil, fmt.Errorf("search api error: %s", resp.Error)
	}

	results := c.assemble(resp)
	if len(results) == 0 {
		c.log.Warn("no search results", zap.String("query", query))
		metrics.ObserveSearch("empty")
		return nil, nil
	}
	metrics.ObserveSearch("success")
	return results, nil
}

func (c *Client) call(ctx context.Context, query string) (apiResponse, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", c.cfg.APIKey)
	params.Set("num", fmt.Sprintf("%d", c.cfg.MaxResults))
	params.Set("gl", "us")
	params.Set("hl", "en")
	params.Set("tbm", "nws")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return apiResponse{}, fmt.Errorf("build search request: %w", err)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return apiResponse{}, fmt.Errorf("search request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return apiResponse{}, fmt.Errorf("search api status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded apiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
		return apiResponse{}, fmt.Errorf("decode search response: %w", err)
	}
	return decoded, nil
}

type rankedResult struct {
	claims.SearchResult
	priority bool
}

func (c *Client) assemble(resp apiResponse) []claims.SearchResult {
	ranked := make([]rankedResult, 0, c.cfg.MaxResults)

	for _, r := range resp.NewsResults {
		if len(ranked) >= c.cfg.MaxResults {
			break
		}
		source := r.Source.Name
		if source == "" {
			source = "Unknown"
		}
		ranked = append(ranked, rankedResult{
			SearchResult: claims.SearchResult{
				Category: "news",
				Title:    orDefault(r.Title, "No title"),
				Link:     r.Link,
				Source:   source,
				Snippet:  r.Snippet,
				Date:     orDefault(r.Date, "Unknown"),
			},
			priority: isPriority(r.Link),
		})
	}

	for _, r := range resp.OrganicResults {
		if len(ranked) >= c.cfg.MaxResults {
			break
		}
		ranked = append(ranked, rankedResult{
			SearchResult: claims.SearchResult{
				Category: "organic",
				Title:    orDefault(r.Title, "No title"),
				Link:     r.Link,
				Source:   orDefault(r.DisplayedLink, "Google Search"),
				Snippet:  r.Snippet,
				Date:     orDefault(r.Date, "Unknown"),
			},
			priority: isPriority(r.Link),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].priority && !ranked[j].priority
	})

	results := make([]claims.SearchResult, len(ranked))
	for i, r := range ranked {
		results[i] = r.SearchResult
	}
	return results
}

func isPriority(link string) bool {
	lower := strings.ToLower(link)
	for _, domain := range priorityDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
