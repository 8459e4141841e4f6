package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"

	"github.com/dqalex/OmniSpark/internal/model"
)

const (
	// maxImportLength bounds the imported description.
	maxImportLength = 4000
	// minImportLength rejects login walls, cookie walls, and empty pages.
	minImportLength = 80
	// importRetries is the number of fetch attempts before giving up.
	importRetries = 2
	// maxImportBody is the maximum HTTP response body size (5MB).
	maxImportBody = 5 * 1024 * 1024
)

// BriefImporter fetches a product page and extracts readable text to
// prefill a product brief.
type BriefImporter struct {
	client *http.Client
}

// NewBriefImporter creates an importer with its own short-timeout client.
func NewBriefImporter(timeout time.Duration) *BriefImporter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BriefImporter{
		client: &http.Client{Timeout: timeout},
	}
}

// Import fetches the URL and returns a brief prefill with the page title as
// the suggested product name and the extracted text as the description.
func (im *BriefImporter) Import(ctx context.Context, url string) (model.ProductBrief, error) {
	var lastErr error
	for attempt := 0; attempt < importRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return model.ProductBrief{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			}
		}

		brief, err := im.doImport(ctx, url)
		if err == nil {
			return brief, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return model.ProductBrief{}, ctx.Err()
		}
	}
	return model.ProductBrief{}, fmt.Errorf("after %d attempts: %w", importRetries, lastErr)
}

func (im *BriefImporter) doImport(ctx context.Context, url string) (model.ProductBrief, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.ProductBrief{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := im.client.Do(req)
	if err != nil {
		return model.ProductBrief{}, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.ProductBrief{}, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImportBody))
	if err != nil {
		return model.ProductBrief{}, fmt.Errorf("read body: %w", err)
	}

	parsedURL, _ := nurl.Parse(url)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return model.ProductBrief{}, fmt.Errorf("readability: %w", err)
	}

	text := normalizeImportText(article.TextContent)
	if utf8.RuneCountInString(text) < minImportLength {
		return model.ProductBrief{}, fmt.Errorf("extracted content too short (%d chars), possibly blocked or empty page", utf8.RuneCountInString(text))
	}
	text = truncateRunes(text, maxImportLength)

	return model.ProductBrief{
		Name:        strings.TrimSpace(article.Title),
		Description: text,
	}, nil
}

var importMultiSpace = regexp.MustCompile(`[ \t]+`)
var importMultiNewline = regexp.MustCompile(`\n{3,}`)

func normalizeImportText(s string) string {
	s = strings.TrimSpace(s)
	s = importMultiSpace.ReplaceAllString(s, " ")
	s = importMultiNewline.ReplaceAllString(s, "\n\n")
	return s
}
