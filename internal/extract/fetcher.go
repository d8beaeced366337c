package extract

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// userAgents is rotated across attempts so a single blocked identity does not
// doom the fetch.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:122.0) Gecko/20100101 Firefox/122.0",
}

// FetchConfig controls collector behavior.
type FetchConfig struct {
	Timeout    time.Duration
	MaxRetries int
}

// Fetcher retrieves raw HTML with bounded retry over transient failures.
type Fetcher struct {
	cfg    FetchConfig
	base   *colly.Collector
	policy *RetryPolicy
	log    *zap.Logger
}

// NewFetcher builds a Fetcher.
func NewFetcher(cfg FetchConfig, log *zap.Logger) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	// retries revisit the same URL; collectors share the visit store
	c.AllowURLRevisit = true
	c.WithTransport(newHTTPTransport())
	return &Fetcher{
		cfg:    cfg,
		base:   c,
		policy: NewRetryPolicy(cfg.MaxRetries),
		log:    log,
	}
}

// Fetch retrieves the URL's body, retrying failures on the status allow-list
// with jittered backoff between attempts.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "", fmt.Errorf("invalid url %q", url)
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		body, status, err := f.fetchOnce(ctx, url, attempt)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !f.policy.ShouldRetry(err, status, attempt+1) {
			break
		}
		wait := f.policy.Backoff(attempt)
		f.log.Debug("retrying fetch",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Int("status", status),
			zap.Duration("backoff", wait))
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("fetch canceled: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return "", fmt.Errorf("fetch failed: %w", lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string, attempt int) (string, int, error) {
	collector := f.base.Clone()
	collector.UserAgent = userAgents[attempt%len(userAgents)]
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 12 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	var (
		body     string
		status   int
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = string(r.Body)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return "", status, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return "", status, fmt.Errorf("visit %s: %w", url, err)
		}
		if fetchErr != nil {
			return "", status, fmt.Errorf("response %s: %w", url, fetchErr)
		}
		return body, status, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
