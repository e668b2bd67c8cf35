// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/pkg/types"
)

const sampleHTML = `<h1>Guide</h1><p>Intro text.</p><h2>Section</h2><ul><li>One</li><li><p>Two</p></li></ul><h3>Q?</h3><p>A.</p>`

func sampleJob() Job {
	return Job{
		Keyword: "home loans",
		Article: &types.Article{
			HTML:            sampleHTML,
			WordCount:       2600,
			Title:           "Guide",
			MetaDescription: "All about home loans & rates",
		},
		Brief: types.Brief{TargetDomain: "example.com", Language: "English"},
		Now:   time.Date(2026, 3, 1, 10, 30, 0, 0, time.Local),
	}
}

func TestAppendLog_CreatesHeaderThenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.xlsx")
	job := sampleJob()

	first := NewRecord(job.Keyword, job.Article, job.Brief, job.Now)
	require.NoError(t, AppendLog(path, first))
	second := first
	second.Keyword = "car loans"
	second.Status = StatusPublished
	second.Link = "https://example.com/?p=1"
	require.NoError(t, AppendLog(path, second))

	recs, err := ReadLog(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "home loans", recs[0].Keyword)
	assert.Equal(t, "Guide", recs[0].Title)
	assert.Equal(t, 2600, recs[0].WordCount)
	assert.Equal(t, StatusGenerated, recs[0].Status)
	assert.Equal(t, "example.com", recs[0].TargetDomain)
	assert.Equal(t, "English", recs[0].Language)
	assert.True(t, job.Now.Equal(recs[0].Timestamp))

	assert.Equal(t, "car loans", recs[1].Keyword)
	assert.Equal(t, StatusPublished, recs[1].Status)
	assert.Equal(t, "https://example.com/?p=1", recs[1].Link)
}

func TestNewRecord_DegradedStatus(t *testing.T) {
	job := sampleJob()
	job.Article.Degraded = true
	assert.Equal(t, StatusDegraded, NewRecord(job.Keyword, job.Article, job.Brief, job.Now).Status)
}

func TestReadLog_Missing(t *testing.T) {
	_, err := ReadLog(filepath.Join(t.TempDir(), "absent.xlsx"))
	assert.Error(t, err)
}

func TestBuildDocument(t *testing.T) {
	d, err := BuildDocument(sampleJob().Article)
	require.NoError(t, err)
	assert.Equal(t, "Guide", d.Title)
	assert.Equal(t, []Block{
		{Kind: BlockParagraph, Text: "Intro text."},
		{Kind: BlockHeading, Level: 2, Text: "Section"},
		{Kind: BlockBullet, Text: "One"},
		{Kind: BlockBullet, Text: "Two"},
		{Kind: BlockHeading, Level: 3, Text: "Q?"},
		{Kind: BlockParagraph, Text: "A."},
	}, d.Blocks)
}

func TestBuildDocument_KeepsH1DifferentFromTitle(t *testing.T) {
	d, err := BuildDocument(&types.Article{HTML: "<h1>Other</h1><p>x</p>", Title: "Guide"})
	require.NoError(t, err)
	require.NotEmpty(t, d.Blocks)
	assert.Equal(t, Block{Kind: BlockHeading, Level: 1, Text: "Other"}, d.Blocks[0])
}

func TestDocumentMarkdown(t *testing.T) {
	d, err := BuildDocument(sampleJob().Article)
	require.NoError(t, err)
	want := "# Guide\n\nIntro text.\n\n### Section\n\n- One\n- Two\n\n#### Q?\n\nA.\n"
	assert.Equal(t, want, d.Markdown())
}

func TestRenderHTML(t *testing.T) {
	out, err := RenderHTML(sampleJob())
	require.NoError(t, err)
	page := string(out)
	assert.Contains(t, page, `<html lang="en">`)
	assert.Contains(t, page, "<title>Guide</title>")
	assert.Contains(t, page, `content="All about home loans &amp; rates"`)
	assert.Contains(t, page, `<meta name="word-count" content="2600">`)
	assert.Contains(t, page, sampleHTML)
	assert.NotContains(t, page, `dir="rtl"`)
}

func TestRenderHTML_RTL(t *testing.T) {
	tests := []struct {
		language string
		lang     string
		rtl      bool
	}{
		{"Arabic", "ar", true},
		{" arabic ", "ar", true},
		{"he", "he", true},
		{"French", "fr", false},
		{"", "en", false},
		{"Klingon", "en", false},
	}
	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			job := sampleJob()
			job.Brief.Language = tt.language
			out, err := RenderHTML(job)
			require.NoError(t, err)
			assert.Contains(t, string(out), `lang="`+tt.lang+`"`)
			assert.Equal(t, tt.rtl, bytes.Contains(out, []byte(`dir="rtl"`)))
		})
	}
}

func TestToMarkdown(t *testing.T) {
	out, err := ToMarkdown(&types.Article{HTML: "<h1>Title</h1><p>Hello <strong>world</strong></p>"})
	require.NoError(t, err)
	assert.Contains(t, out, "# Title")
	assert.Contains(t, out, "Hello **world**")
}

func TestRun_AllFormats(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	cfg := types.ExportConfig{
		Dir:     dir,
		Formats: []types.ExportFormat{types.ExportSpreadsheet, types.ExportDocument, types.ExportHTML, types.ExportMarkdown},
	}
	var progress bytes.Buffer
	sum, err := Run(cfg, sampleJob(), &progress)
	require.NoError(t, err)
	assert.False(t, sum.HasFailures())

	assert.Equal(t, []string{
		filepath.Join(dir, "articles_log.xlsx"),
		filepath.Join(dir, "home-loans_20260301_103000.doc.md"),
		filepath.Join(dir, "home-loans_20260301_103000.html"),
		filepath.Join(dir, "home-loans_20260301_103000.md"),
	}, sum.Written)
	for _, p := range sum.Written {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
	assert.Contains(t, progress.String(), "wrote")
	assert.Equal(t, filepath.Join(dir, "articles_log.xlsx"), LogPath(cfg))
}

func TestRun_UnknownFormatContinues(t *testing.T) {
	cfg := types.ExportConfig{
		Dir:     t.TempDir(),
		LogFile: "runs.xlsx",
		Formats: []types.ExportFormat{"pdf", types.ExportSpreadsheet},
	}
	var progress bytes.Buffer
	sum, err := Run(cfg, sampleJob(), &progress)
	require.NoError(t, err)
	assert.True(t, sum.HasFailures())
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, []string{filepath.Join(cfg.Dir, "runs.xlsx")}, sum.Written)
	assert.Contains(t, progress.String(), "failed  pdf")
}
