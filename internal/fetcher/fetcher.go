// Package fetcher retrieves web pages by URL and turns them into documents keyed by that URL.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperjump/wikisearch/internal/config"
	"github.com/hyperjump/wikisearch/internal/extract"
	"github.com/hyperjump/wikisearch/internal/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// defaultMaxBodyBytes is the body limit when the config sets none.
const defaultMaxBodyBytes = 10 << 20

var (
	// ErrUnsupportedURL is returned for URLs that are not absolute http(s) URLs.
	ErrUnsupportedURL = errors.New("unsupported URL")
	// ErrBodyTooLarge is returned for a response larger than the body limit. Nothing is indexed.
	ErrBodyTooLarge = errors.New("response body too large")
)

// Fetcher downloads pages politely: requests share one rate limiter.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	maxBody   int64
	extractor *extract.Extractor
	logger    *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// New creates a Fetcher from cfg. Zero rate or burst values fall back to one request per second.
func New(cfg config.FetchConfig, extractor *extract.Extractor, opts ...Option) *Fetcher {
	limit := rate.Limit(cfg.RatePerSecond)
	if cfg.RatePerSecond <= 0 {
		limit = rate.Every(time.Second)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	f := &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: cfg.UserAgent,
		maxBody:   maxBody,
		extractor: extractor,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NormalizeURL lowercases the scheme and host and drops the fragment, so the same page
// always maps to the same document ID.
func NormalizeURL(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if parsed.Scheme != "http" && parsed.Scheme != "https" || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
	}
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	parsed.RawFragment = ""
	return parsed.String(), nil
}

// Fetch downloads rawURL and extracts its text. The returned input has ID and Source set
// to the normalized URL and is ready for the indexer. Links are not followed.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*models.DocumentInput, error) {
	pageURL, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", pageURL, resp.Status)
	}
	if resp.ContentLength > f.maxBody {
		return nil, fmt.Errorf("fetch %s: %w: %d bytes, limit %d", pageURL, ErrBodyTooLarge, resp.ContentLength, f.maxBody)
	}
	// one byte past the limit tells a body of exactly maxBody bytes from a longer one
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pageURL, err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("fetch %s: %w: limit %d", pageURL, ErrBodyTooLarge, f.maxBody)
	}

	content, err := f.extractor.ExtractBytes(body, extensionFor(resp.Header.Get("Content-Type")))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", pageURL, err)
	}
	title := content.Title
	if title == "" {
		title = pageURL
	}
	f.logger.Debug("page fetched",
		zap.String("url", pageURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &models.DocumentInput{
		ID:      pageURL,
		Title:   title,
		Source:  pageURL,
		Content: content.Text,
		Metadata: map[string]interface{}{
			"content_type": resp.Header.Get("Content-Type"),
			"fetched_at":   time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// extensionFor maps a Content-Type to the extractor's extension. Anything unrecognized
// is treated as HTML, which is what wiki servers send.
func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".html"
	}
	switch mediaType {
	case "text/plain", "text/markdown":
		return ".txt"
	case "application/pdf":
		return ".pdf"
	default:
		return ".html"
	}
}
