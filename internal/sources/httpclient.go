package sources

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// DefaultScraperRateLimit is the default maximum requests per second
	// shared by the scraping adapters.
	DefaultScraperRateLimit = 2
	// ScraperRateLimitEnvVar overrides the scraper rate limit.
	ScraperRateLimitEnvVar = "SCRAPER_RATE_LIMIT"

	// UserAgent identifies buildscout to the sites it queries.
	UserAgent = "buildscout/1.0"

	defaultTimeout = 30 * time.Second
)

// HTTPClient is the interface adapters use for outbound requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RateLimitedHTTPClient implements HTTPClient with a shared rate limiter so
// concurrent adapters stay polite toward the sites they scrape.
type RateLimitedHTTPClient struct {
	client  *http.Client
	limiter *rate.Limiter
	mu      sync.Mutex
}

func getScraperRateLimit() float64 {
	if envValue := os.Getenv(ScraperRateLimitEnvVar); envValue != "" {
		if value, err := strconv.ParseFloat(envValue, 64); err == nil && value > 0 {
			return value
		}
	}
	return DefaultScraperRateLimit
}

// NewRateLimitedHTTPClient creates a rate-limited HTTP client with the
// configured requests-per-second budget.
func NewRateLimitedHTTPClient() *RateLimitedHTTPClient {
	rateLimit := getScraperRateLimit()
	return &RateLimitedHTTPClient{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rateLimit), 1), // Allow burst of 1
	}
}

// Do implements HTTPClient, waiting on the limiter before each request.
func (c *RateLimitedHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

// Get fetches a URL with browser-like headers and returns the response body,
// transparently handling gzip responses.
func Get(ctx context.Context, client HTTPClient, logger *logrus.Logger, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Connection", "keep-alive")

	logger.WithField("url", reqURL).Debug("Making HTTP request")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.WithError(closeErr).Warn("Failed to close response body")
		}
	}()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer func() {
			if closeErr := gzipReader.Close(); closeErr != nil {
				logger.WithError(closeErr).Warn("Failed to close gzip reader")
			}
		}()
		reader = gzipReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limit exceeded for %s: please wait before retrying", req.URL.Host)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("request to %s failed with status %d", req.URL.Host, resp.StatusCode)
	}

	return body, nil
}

// GetDocument fetches a URL and parses the response as an HTML document.
func GetDocument(ctx context.Context, client HTTPClient, logger *logrus.Logger, reqURL string) (*goquery.Document, error) {
	body, err := Get(ctx, client, logger, reqURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML response: %w", err)
	}
	return doc, nil
}
