package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"codeberg.org/readeck/go-readability/v2"
	"golang.org/x/sync/singleflight"

	"github.com/hopgraph/hopgraph/internal/util"
)

const fetchAttempts = 3

// WebLoader fetches a URL and extracts readable text. HTML pages are reduced
// to their main article content; anything else is taken verbatim. Fetches are
// cached and deduplicated per loader instance.
type WebLoader struct {
	url string

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewWebLoader creates a loader for a web URL.
func NewWebLoader(rawURL string) *WebLoader {
	return &WebLoader{
		url:   rawURL,
		cache: make(map[string][]byte),
	}
}

// GetText fetches the URL and returns its readable text content.
func (l *WebLoader) GetText(ctx context.Context) ([]byte, error) {
	l.cacheMu.RLock()
	if cached, ok := l.cache[l.url]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(l.url, func() (any, error) {
		text, err := util.RetryWithContext(ctx, fetchAttempts, l.fetch)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[l.url] = text
		l.cacheMu.Unlock()

		return text, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (l *WebLoader) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching url", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") {
		u, err := url.Parse(l.url)
		if err != nil {
			return nil, fmt.Errorf("failed to parse url: %w", err)
		}
		article, err := readability.FromReader(resp.Body, u)
		if err != nil {
			return nil, fmt.Errorf("failed to parse html: %w", err)
		}
		var builder strings.Builder
		if err := article.RenderText(&builder); err != nil {
			return nil, fmt.Errorf("failed to render article text: %w", err)
		}
		return []byte(builder.String()), nil
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return text, nil
}
