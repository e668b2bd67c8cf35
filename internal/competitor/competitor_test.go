// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package competitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/internal/generate"
	"github.com/pdiddy/content-engine/internal/httputil"
	"github.com/pdiddy/content-engine/pkg/types"
)

func TestMain(m *testing.M) {
	httputil.RetryBaseDelay = time.Millisecond
	os.Exit(m.Run())
}

type failingSource struct{ err error }

func (f failingSource) Fetch(context.Context, string) (FetchResult, error) {
	return FetchResult{}, f.err
}

func TestAverageLength(t *testing.T) {
	tests := []struct {
		name    string
		lengths []int
		want    int
	}{
		{"empty", nil, 0},
		{"single", []int{1200}, 1200},
		{"exact", []int{2000, 2400, 2800}, 2400},
		{"floors", []int{1, 2}, 1},
		{"zeros", []int{0, 0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var recs []types.CompetitorRecord
			for _, l := range tt.lengths {
				recs = append(recs, types.CompetitorRecord{Length: l})
			}
			assert.Equal(t, tt.want, AverageLength(recs))
		})
	}
}

func TestCommonHeadings(t *testing.T) {
	recs := []types.CompetitorRecord{
		{Headings: []string{"A", "B"}},
		{Headings: []string{"A", "C"}},
		{Headings: []string{"B"}},
	}
	assert.Equal(t, []string{"A", "B", "C"}, CommonHeadings(recs, 8))
}

func TestCommonHeadings_TiesKeepFirstSeen(t *testing.T) {
	recs := []types.CompetitorRecord{
		{Headings: []string{"Z", "Y", "X"}},
		{Headings: []string{"X", "W"}},
	}
	assert.Equal(t, []string{"X", "Z", "Y", "W"}, CommonHeadings(recs, 8))
}

func TestCommonHeadings_Truncates(t *testing.T) {
	var hs []string
	for i := 0; i < 20; i++ {
		hs = append(hs, fmt.Sprintf("H%d", i))
	}
	got := CommonHeadings([]types.CompetitorRecord{{Headings: hs}}, 8)
	assert.Len(t, got, 8)
	assert.Equal(t, hs[:8], got)
}

func TestAggregate(t *testing.T) {
	src := Static{Records: []types.CompetitorRecord{
		{Title: "a", Length: 2000, Headings: []string{"H2: Intro"}},
		{Title: "b", Length: 2400, Headings: []string{"H2: Intro", "H2: Cost"}},
		{Title: "c", Length: 2800},
	}}
	s, err := Aggregate(context.Background(), "  laptop batteries ", src, nil)
	require.NoError(t, err)

	assert.Equal(t, "laptop batteries", s.Keyword)
	assert.Equal(t, 2400, s.AvgLength)
	assert.Len(t, s.Competitors, 3)
	assert.Equal(t, []string{"H2: Intro", "H2: Cost"}, s.CommonHeadings)
	assert.Len(t, s.SuggestedKeywords, 5)
	assert.Equal(t, "laptop batteries best", s.SuggestedKeywords[0])
	assert.Len(t, s.FAQSuggestions, 12)
	assert.Equal(t, "What is laptop batteries?", s.FAQSuggestions[0])
	assert.Empty(t, s.FetchFailures)
}

func TestAggregate_EmptyKeyword(t *testing.T) {
	for _, kw := range []string{"", "   ", "\t\n"} {
		_, err := Aggregate(context.Background(), kw, SimulatedSource{}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrInvalidInput)
	}
}

func TestAggregate_PartialFailures(t *testing.T) {
	src := Static{
		Records:  []types.CompetitorRecord{{Length: 1000}},
		Failures: []types.FetchFailure{{URL: "https://down.example", Reason: "HTTP 500"}},
	}
	var buf bytes.Buffer
	s, err := Aggregate(context.Background(), "kw", src, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1000, s.AvgLength)
	require.Len(t, s.FetchFailures, 1)
	assert.Contains(t, buf.String(), "warning: competitor https://down.example excluded: HTTP 500")
}

func TestAggregate_SourceErrorDegradesToEmpty(t *testing.T) {
	var buf bytes.Buffer
	s, err := Aggregate(context.Background(), "kw", failingSource{errors.New("fixture missing")}, &buf)
	require.NoError(t, err)
	assert.Empty(t, s.Competitors)
	assert.Equal(t, 0, s.AvgLength)
	require.Len(t, s.FetchFailures, 1)
	assert.Equal(t, "fixture missing", s.FetchFailures[0].Reason)
	assert.Contains(t, buf.String(), "warning:")
}

func TestSimulatedSource(t *testing.T) {
	res, err := SimulatedSource{}.Fetch(context.Background(), "Laptop Batteries")
	require.NoError(t, err)
	require.Len(t, res.Records, defaultSimulatedCount)
	assert.Equal(t, "https://example-competitor-1.com/article-about-laptop-batteries", res.Records[0].URL)
	assert.Equal(t, "https://example-competitor-5.com/article-about-laptop-batteries", res.Records[4].URL)

	again, err := SimulatedSource{}.Fetch(context.Background(), "Laptop Batteries")
	require.NoError(t, err)
	assert.Equal(t, res, again)

	s := Summarize("Laptop Batteries", res.Records)
	assert.Equal(t, "H1: The complete guide to Laptop Batteries", s.CommonHeadings[0])
	assert.LessOrEqual(t, len(s.CommonHeadings), 8)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "laptop-batteries", Slug("  Laptop   Batteries! "))
	assert.Equal(t, "بطاريات-اللابتوب", Slug("بطاريات اللابتوب"))
}

func TestFixtureSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "competitors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`competitors:
  - title: First
    url: https://a.example
    length: 2000
    headings: ["H2: One", "H2: Two"]
  - title: Broken
    url: https://b.example
    length: -4
failures:
  - url: https://c.example
    reason: timeout
`), 0o644))

	res, err := FixtureSource{Path: path}.Fetch(context.Background(), "ignored")
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "First", res.Records[0].Title)
	assert.Equal(t, []string{"H2: One", "H2: Two"}, res.Records[0].Headings)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, "https://c.example", res.Failures[0].URL)
	assert.Contains(t, res.Failures[1].Reason, "invalid length")

	_, err = FixtureSource{Path: filepath.Join(dir, "missing.yaml")}.Fetch(context.Background(), "kw")
	assert.ErrorContains(t, err, "reading fixture")
}

const samplePage = `<html><head><title> Best Laptop Batteries 2026 </title><style>.x{}</style></head>
<body>
<h1>Laptop batteries</h1>
<p>one two three four</p>
<h2>How   to choose</h2>
<script>var ignored = "many words here";</script>
<h3>Capacity</h3>
<p>five six</p>
</body></html>`

func TestParsePage(t *testing.T) {
	rec, err := ParsePage("https://x.example", strings.NewReader(samplePage))
	require.NoError(t, err)
	assert.Equal(t, "Best Laptop Batteries 2026", rec.Title)
	assert.Equal(t, "https://x.example", rec.URL)
	assert.Equal(t, []string{"H1: Laptop batteries", "H2: How to choose", "H3: Capacity"}, rec.Headings)
	// "Laptop batteries" + 4 + "How to choose" + "Capacity" + 2
	assert.Equal(t, 12, rec.Length)
}

func TestWebSource_PartialFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		io.WriteString(w, samplePage)
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	src := NewWebSource(types.CompetitorConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "test-agent"},
		URLs:       []string{ts.URL + "/ok", ts.URL + "/down", ts.URL + "/ok"},
	}, nil, nil)

	var buf bytes.Buffer
	s, err := Aggregate(context.Background(), "laptop batteries", src, &buf)
	require.NoError(t, err)
	require.Len(t, s.Competitors, 1, "duplicate URLs are fetched once")
	assert.Equal(t, 12, s.AvgLength)
	require.Len(t, s.FetchFailures, 1)
	assert.Equal(t, ts.URL+"/down", s.FetchFailures[0].URL)
	assert.Equal(t, "HTTP 500", s.FetchFailures[0].Reason)
	assert.Contains(t, buf.String(), "warning:")
}

func TestWebSource_MaxResults(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		io.WriteString(w, samplePage)
	}))
	defer ts.Close()

	var urls []string
	for i := 0; i < 5; i++ {
		urls = append(urls, fmt.Sprintf("%s/p%d", ts.URL, i))
	}
	src := &WebSource{URLs: urls, MaxResults: 2, Client: ts.Client()}
	res, err := src.Fetch(context.Background(), "kw")
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, 2, hits)
}

const sampleFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>search</title>
<item><title>One</title><link>LINK/one</link></item>
<item><title>No link</title></item>
<item><title>Two</title><link>LINK/two</link></item>
</channel></rss>`

func TestFeedDiscoverer(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	var base string
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/rss+xml")
		io.WriteString(w, strings.ReplaceAll(sampleFeed, "LINK", base))
	})
	mux.HandleFunc("/one", func(w http.ResponseWriter, _ *http.Request) { io.WriteString(w, samplePage) })
	mux.HandleFunc("/two", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) })
	ts := httptest.NewServer(mux)
	defer ts.Close()
	base = ts.URL

	cfg := types.CompetitorConfig{FeedURL: ts.URL + "/feed?q={keyword}"}
	disc := NewFeedDiscoverer(cfg)
	require.NotNil(t, disc)

	links, err := disc.Discover(context.Background(), "laptop batteries")
	require.NoError(t, err)
	assert.Equal(t, "laptop batteries", gotQuery)
	assert.Equal(t, []string{ts.URL + "/one", ts.URL + "/two"}, links)

	src, err := NewSource(types.CompetitorConfig{Source: types.SourceWeb, FeedURL: cfg.FeedURL}, nil)
	require.NoError(t, err)
	res, err := src.Fetch(context.Background(), "laptop batteries")
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "HTTP 404", res.Failures[0].Reason)
}

func TestFeedDiscoverer_FailureIsSingleFetchFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "this is not a feed")
	}))
	defer ts.Close()

	src, err := NewSource(types.CompetitorConfig{Source: types.SourceWeb, FeedURL: ts.URL + "?q={keyword}"}, nil)
	require.NoError(t, err)

	s, err := Aggregate(context.Background(), "kw", src, nil)
	require.NoError(t, err)
	assert.Empty(t, s.Competitors)
	require.Len(t, s.FetchFailures, 1)
	assert.Equal(t, "(discovery)", s.FetchFailures[0].URL)
	assert.Contains(t, s.FetchFailures[0].Reason, "parsing feed")
}

func TestNewFeedDiscoverer_Unconfigured(t *testing.T) {
	assert.Nil(t, NewFeedDiscoverer(types.CompetitorConfig{}))
}

func TestNewSource(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.CompetitorConfig
		want    any
		wantErr string
	}{
		{"default simulated", types.CompetitorConfig{}, SimulatedSource{}, ""},
		{"simulated count", types.CompetitorConfig{Source: types.SourceSimulated, Count: 3}, SimulatedSource{Count: 3}, ""},
		{"fixture", types.CompetitorConfig{Source: types.SourceFixture, Fixture: "f.yaml"}, FixtureSource{Path: "f.yaml"}, ""},
		{"fixture without path", types.CompetitorConfig{Source: types.SourceFixture}, nil, "competitor.fixture"},
		{"web without urls", types.CompetitorConfig{Source: types.SourceWeb}, nil, "competitor.urls"},
		{"unknown", types.CompetitorConfig{Source: "serp"}, nil, "unknown competitor source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSource(tt.cfg, nil)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInsights(t *testing.T) {
	s := Summarize("kw", []types.CompetitorRecord{{Title: "T", URL: "https://t.example", Length: 10, Headings: []string{"H2: A"}}})
	var got generate.Request
	b := generate.BackendFunc(func(_ context.Context, req generate.Request) (string, error) {
		got = req
		return "  gaps: pricing \n", nil
	})

	out, err := Insights(context.Background(), b, s, "Arabic", generate.Options{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "gaps: pricing", out.Insights)
	assert.Empty(t, s.Insights, "input summary is not mutated")
	assert.Contains(t, got.Context, "https://t.example")
	assert.Contains(t, got.Prompt(), "Answer in Arabic")
	assert.Equal(t, "m", got.Options.Model)

	_, err = Insights(context.Background(), generate.BackendFunc(func(context.Context, generate.Request) (string, error) {
		return "", errors.New("down")
	}), s, "", generate.Options{})
	assert.ErrorContains(t, err, "competitor insights")
}
