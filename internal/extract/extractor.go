// Package extract recovers clean article text from noisy HTML using layered
// strategies: declared structured data first, then a paragraph-density
// heuristic over the stripped document.
package extract

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/veritaslabs/veritas/internal/claims"
	"github.com/veritaslabs/veritas/internal/metrics"
)

// Strategy names recorded in ExtractionResult.Method.
const (
	MethodStructured = "structured"
	MethodHeuristic  = "heuristic"
)

// Config bounds strategy acceptance and output size.
type Config struct {
	MinStructuredChars int
	MinHeuristicChars  int
	MaxContentChars    int
}

// HTMLFetcher retrieves raw HTML for a URL.
type HTMLFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor runs the strategy cascade over fetched HTML.
type Extractor struct {
	cfg     Config
	fetcher HTMLFetcher
	clock   claims.Clock
	log     *zap.Logger
}

// New builds an Extractor.
func New(cfg Config, fetcher HTMLFetcher, clock claims.Clock, log *zap.Logger) *Extractor {
	if cfg.MinStructuredChars <= 0 {
		cfg.MinStructuredChars = 200
	}
	if cfg.MinHeuristicChars <= 0 {
		cfg.MinHeuristicChars = 200
	}
	if cfg.MaxContentChars <= 0 {
		cfg.MaxContentChars = 2500
	}
	return &Extractor{cfg: cfg, fetcher: fetcher, clock: clock, log: log}
}

// Extract fetches the URL and tries each strategy in priority order. A
// strategy either meets its minimum content length or the cascade moves on;
// the result is never partially successful.
func (e *Extractor) Extract(ctx context.Context, target string) claims.ExtractionResult {
	result := claims.ExtractionResult{
		URL:       target,
		Timestamp: e.clock.Now(),
	}

	html, err := e.fetcher.Fetch(ctx, target)
	if err != nil {
		e.log.Warn("fetch failed", zap.String("url", target), zap.Error(err))
		result.Error = err.Error()
		metrics.ObserveExtraction("fetch", "failure")
		return result
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		result.Error = "html parse failed: " + err.Error()
		metrics.ObserveExtraction("parse", "failure")
		return result
	}

	if article, ok := extractStructured(doc); ok {
		content := cleanText(article.ArticleBody)
		if len(content) >= e.cfg.MinStructuredChars {
			result.ScrapedSuccessfully = true
			result.Method = MethodStructured
			result.Content = truncate(content, e.cfg.MaxContentChars)
			result.Length = len(result.Content)
			result.Title = article.Headline
			result.Author = authorName(article.Author)
			result.Date = normalizeDate(article.Published)
			result.Source = siteName(doc, target)
			metrics.ObserveExtraction(MethodStructured, "success")
			return result
		}
	}

	if content := cleanText(extractHeuristic(doc)); len(content) >= e.cfg.MinHeuristicChars {
		result.ScrapedSuccessfully = true
		result.Method = MethodHeuristic
		result.Content = truncate(content, e.cfg.MaxContentChars)
		result.Length = len(result.Content)
		result.Title = pageTitle(doc)
		result.Author = metaContent(doc, "author")
		result.Date = normalizeDate(metaProperty(doc, "article:published_time"))
		result.Source = siteName(doc, target)
		metrics.ObserveExtraction(MethodHeuristic, "success")
		return result
	}

	result.Error = "content extraction failed"
	metrics.ObserveExtraction("cascade", "failure")
	return result
}

func pageTitle(doc *goquery.Document) string {
	if t, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && t != "" {
		return strings.TrimSpace(t)
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func metaContent(doc *goquery.Document, name string) string {
	v, _ := doc.Find(`meta[name="` + name + `"]`).Attr("content")
	return strings.TrimSpace(v)
}

func metaProperty(doc *goquery.Document, prop string) string {
	v, _ := doc.Find(`meta[property="` + prop + `"]`).Attr("content")
	return strings.TrimSpace(v)
}

// publishedLayouts covers the date formats publishers actually emit in
// JSON-LD and og meta tags.
var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// normalizeDate rewrites a recognized publish date as RFC 3339; anything
// unparseable is passed through untouched.
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(time.RFC3339)
		}
	}
	return raw
}

func siteName(doc *goquery.Document, target string) string {
	if s, ok := doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok && s != "" {
		return strings.TrimSpace(s)
	}
	if u, err := url.Parse(target); err == nil {
		return strings.TrimPrefix(u.Hostname(), "www.")
	}
	return ""
}
