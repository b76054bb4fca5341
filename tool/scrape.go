package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// WebScraper fetches web pages and returns their readable text.
type WebScraper struct {
	UserAgent string
	MaxBytes  int64
	client    *http.Client
}

type ScraperOption func(*WebScraper)

// WithScraperHTTPClient sets the HTTP client used for requests.
func WithScraperHTTPClient(client *http.Client) ScraperOption {
	return func(s *WebScraper) {
		s.client = client
	}
}

// WithScraperUserAgent sets the User-Agent header sent with requests.
func WithScraperUserAgent(userAgent string) ScraperOption {
	return func(s *WebScraper) {
		s.UserAgent = userAgent
	}
}

// NewWebScraper creates a new WebScraper tool.
func NewWebScraper(opts ...ScraperOption) *WebScraper {
	s := &WebScraper{
		UserAgent: "teamgraph/1.0",
		MaxBytes:  5 << 20,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the name of the tool.
func (s *WebScraper) Name() string {
	return "scrape_webpages"
}

// Description returns the description of the tool.
func (s *WebScraper) Description() string {
	return "Scrape the provided web pages for detailed information."
}

// Parameters describes the tool arguments.
func (s *WebScraper) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"urls": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "The URLs of the pages to scrape",
			},
		},
		"required": []string{"urls"},
	}
}

// Call scrapes every URL and joins the pages as <Document> blocks.
func (s *WebScraper) Call(ctx context.Context, input string) (string, error) {
	var args struct {
		URLs []string `json:"urls"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return "", err
	}
	if len(args.URLs) == 0 {
		return "", fmt.Errorf("urls is required")
	}

	docs := make([]string, 0, len(args.URLs))
	for _, u := range args.URLs {
		title, text, err := s.scrape(ctx, u)
		if err != nil {
			return "", err
		}
		docs = append(docs, fmt.Sprintf("<Document name=%q>\n%s\n</Document>", title, text))
	}
	return strings.Join(docs, "\n\n"), nil
}

func (s *WebScraper) scrape(ctx context.Context, u string) (title, text string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create request for %s: %w", u, err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("failed to fetch %s: status %d", u, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, s.MaxBytes))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse %s: %w", u, err)
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = u
	}

	doc.Find("script, style, noscript, template").Remove()
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return title, collapseLines(root.Text()), nil
}

// collapseLines trims every line and drops the blank ones.
func collapseLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
