// Package fetch retrieves web pages and reduces them to readable text.
// Job postings are the main use: the text is handed to the model as the job description.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; resume-tools/1.0)"

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 10 << 20

// Result holds the raw and processed content from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	Client    *http.Client

	// MaxBodyBytes rejects larger responses. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// URL retrieves HTML content from a URL.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to create request",
			Cause:   err,
		}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	limit := opts.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &Error{
			URL:     urlStr,
			Message: "failed to read response body",
			Cause:   err,
		}
	}
	if int64(len(bodyBytes)) > limit {
		return nil, &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("response body exceeds %d bytes", limit),
		}
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode != http.StatusOK {
		return result, &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}

	return result, nil
}

// PageOptions configures Page.
type PageOptions struct {
	Fetch *Options
	// UseBrowser enables the headless browser fallback for pages whose
	// extracted text is shorter than MinContentLength.
	UseBrowser     bool
	BrowserTimeout time.Duration
	Logger         *zap.Logger
}

// Page fetches a job posting and returns its main text.
// Platform-specific selectors are applied for known job boards.
func Page(ctx context.Context, urlStr string, opts PageOptions) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	platform := DetectPlatform(urlStr)
	logger.Debug("fetching page", zap.String("url", urlStr), zap.String("platform", string(platform)))

	result, err := URL(ctx, urlStr, opts.Fetch)
	if err != nil {
		return "", err
	}

	contentSelectors := PlatformContentSelectors(platform)
	noiseSelectors := PlatformNoiseSelectors(platform)

	if !isHTML(result.ContentType) {
		return strings.TrimSpace(result.HTML), nil
	}

	text, err := ExtractMainText(result.HTML, contentSelectors, noiseSelectors...)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "content extraction failed", Cause: err}
	}
	logger.Debug("extracted page text", zap.Int("html_bytes", len(result.HTML)), zap.Int("text_chars", len(text)))

	if opts.UseBrowser && ShouldUseBrowser(text) {
		logger.Info("page text too short, rendering with headless browser",
			zap.Int("text_chars", len(text)), zap.Int("min_chars", MinContentLength))

		timeout := opts.BrowserTimeout
		if timeout == 0 {
			timeout = DefaultBrowserTimeout
		}
		rendered, browserErr := WithBrowser(ctx, urlStr, timeout, logger)
		if browserErr != nil {
			logger.Warn("browser rendering failed, using HTTP content", zap.Error(browserErr))
			return text, nil
		}
		browserText, extractErr := ExtractMainText(rendered, contentSelectors, noiseSelectors...)
		if extractErr != nil {
			logger.Warn("browser content extraction failed", zap.Error(extractErr))
			return text, nil
		}
		text = browserText
	}

	return text, nil
}

// isHTML reports whether a Content-Type header names an HTML document.
// An empty header is treated as HTML.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "html") || strings.Contains(ct, "xml")
}

// ExtractMainText parses HTML and returns the main body text.
// It removes noise elements using noiseSelectors, then finds content using contentSelectors.
// If no content selectors match, it falls back to the body element.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, .ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup").Remove()

	if len(noiseSelectors) > 0 {
		noiseSelector := strings.Join(noiseSelectors, ", ")
		if noiseSelector != "" {
			doc.Find(noiseSelector).Remove()
		}
	}

	var mainContent *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}

	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	return cleanWhitespace(mainContent.Text()), nil
}

// DefaultTextSelectors returns standard selectors for general web content.
func DefaultTextSelectors() []string {
	return []string{
		"main",
		"article",
		".content",
		"#content",
		".main-content",
		"#main-content",
	}
}

// JobPostingSelectors returns selectors optimized for job board pages.
func JobPostingSelectors() []string {
	return []string{
		".job-description",
		".job-content",
		"#job-description",
		"#job-content",
		".posting-content",
		".job-details",
		"[data-testid='job-description']",
		"main",
		"article",
		".content",
		"#content",
	}
}

// cleanWhitespace trims every line and drops the empty ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
