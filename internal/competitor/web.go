// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package competitor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/content-engine/internal/httputil"
	"github.com/pdiddy/content-engine/pkg/types"
)

const (
	defaultMaxResults = 15
	maxPageBytes      = 8 << 20
)

// Discoverer finds candidate competitor URLs for a keyword.
type Discoverer interface {
	Discover(ctx context.Context, keyword string) ([]string, error)
}

// WebSource fetches competitor pages over HTTP and extracts the title,
// h1-h3 headings, and body word count of each. URLs come from the static
// list followed by anything the Discoverer returns, deduplicated and capped
// at MaxResults. Pages are fetched one at a time with Delay between them.
type WebSource struct {
	URLs       []string
	Discoverer Discoverer
	MaxResults int
	Delay      time.Duration
	UserAgent  string
	Client     *http.Client

	// Log receives one progress line per page; nil discards.
	Log io.Writer
}

// NewWebSource builds a WebSource from cfg. disc may be nil.
func NewWebSource(cfg types.CompetitorConfig, disc Discoverer, log io.Writer) *WebSource {
	return &WebSource{
		URLs:       cfg.URLs,
		Discoverer: disc,
		MaxResults: cfg.MaxResults,
		Delay:      cfg.Delay,
		UserAgent:  httputil.UserAgent(cfg.HTTPConfig),
		Client:     httputil.NewClient(cfg.HTTPConfig, 20*time.Second),
		Log:        log,
	}
}

// Fetch retrieves every candidate page. A page that cannot be fetched or
// parsed becomes a FetchFailure; the others are still processed. A failed
// discovery is likewise reported as one failure.
func (w *WebSource) Fetch(ctx context.Context, keyword string) (FetchResult, error) {
	log := w.Log
	if log == nil {
		log = io.Discard
	}

	var res FetchResult
	urls := append([]string(nil), w.URLs...)
	if w.Discoverer != nil {
		found, err := w.Discoverer.Discover(ctx, keyword)
		if err != nil {
			res.Failures = append(res.Failures, types.FetchFailure{URL: "(discovery)", Reason: err.Error()})
		}
		urls = append(urls, found...)
	}
	urls = dedupe(urls)
	limit := w.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}
	if len(urls) > limit {
		urls = urls[:limit]
	}

	for i, u := range urls {
		if i > 0 && w.Delay > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(w.Delay):
			}
		}
		rec, err := w.fetchPage(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failures = append(res.Failures, types.FetchFailure{URL: u, Reason: err.Error()})
			continue
		}
		fmt.Fprintf(log, "fetched %s (%d words, %d headings)\n", u, rec.Length, len(rec.Headings))
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func (w *WebSource) fetchPage(ctx context.Context, url string) (types.CompetitorRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.CompetitorRecord{}, fmt.Errorf("creating request: %w", err)
	}
	ua := w.UserAgent
	if ua == "" {
		ua = httputil.DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 2, w.Log)
	if err != nil {
		return types.CompetitorRecord{}, err
	}
	body, err := httputil.ReadBody(resp, maxPageBytes)
	if err != nil {
		return types.CompetitorRecord{}, fmt.Errorf("reading body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return types.CompetitorRecord{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return ParsePage(url, bytes.NewReader(body))
}

// ParsePage extracts a CompetitorRecord from an HTML document. Headings are
// recorded as "H1: text", "H2: text", or "H3: text" in document order; the
// length is the whitespace word count of the body text with scripts and
// styles removed.
func ParsePage(url string, r io.Reader) (types.CompetitorRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return types.CompetitorRecord{}, fmt.Errorf("parsing HTML: %w", err)
	}

	rec := types.CompetitorRecord{
		URL:   url,
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}
	doc.Find("h1, h2, h3").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		rec.Headings = append(rec.Headings, strings.ToUpper(goquery.NodeName(s))+": "+text)
	})
	if rec.Title == "" {
		rec.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	body := doc.Find("body")
	body.Find("script, style, noscript").Remove()
	rec.Length = len(strings.Fields(body.Text()))
	return rec, nil
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := urls[:0]
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
