// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package competitor

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pdiddy/content-engine/internal/httputil"
	"github.com/pdiddy/content-engine/pkg/types"
)

const maxFeedBytes = 4 << 20

// FeedDiscoverer finds competitor URLs through an RSS or Atom search feed.
// Template holds the feed URL with a "{keyword}" placeholder, which is
// replaced by the query-escaped keyword.
type FeedDiscoverer struct {
	Template  string
	UserAgent string
	Client    *http.Client
}

// NewFeedDiscoverer returns a discoverer for cfg.FeedURL, or nil when no
// feed is configured.
func NewFeedDiscoverer(cfg types.CompetitorConfig) *FeedDiscoverer {
	if cfg.FeedURL == "" {
		return nil
	}
	return &FeedDiscoverer{
		Template:  cfg.FeedURL,
		UserAgent: httputil.UserAgent(cfg.HTTPConfig),
		Client:    httputil.NewClient(cfg.HTTPConfig, 20*time.Second),
	}
}

// Discover fetches the feed and returns its item links in feed order.
func (f *FeedDiscoverer) Discover(ctx context.Context, keyword string) ([]string, error) {
	feedURL := strings.ReplaceAll(f.Template, "{keyword}", url.QueryEscape(keyword))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating feed request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 2, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	body, err := httputil.ReadBody(resp, maxFeedBytes)
	if err != nil {
		return nil, fmt.Errorf("reading feed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned HTTP %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	var links []string
	for _, item := range feed.Items {
		if item.Link != "" {
			links = append(links, item.Link)
		}
	}
	return links, nil
}
