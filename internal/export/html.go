// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}"{{if .RTL}} dir="rtl"{{end}}>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{- if .Meta}}
<meta name="description" content="{{.Meta}}">
{{- end}}
<meta name="keywords" content="{{.Keyword}}">
<meta name="generator" content="content-engine">
<meta name="word-count" content="{{.WordCount}}">
<meta name="generated" content="{{.Generated}}">
</head>
<body>
{{.Body}}
</body>
</html>
`))

type page struct {
	Lang      string
	RTL       bool
	Title     string
	Meta      string
	Keyword   string
	WordCount int
	Generated string
	Body      template.HTML
}

// RenderHTML returns job's article as a self-contained HTML page.
func RenderHTML(job Job) ([]byte, error) {
	now := job.Now
	if now.IsZero() {
		now = time.Now()
	}
	p := page{
		Lang:      langCode(job.Brief.Language),
		RTL:       isRTL(job.Brief.Language),
		Title:     job.Article.Title,
		Meta:      job.Article.MetaDescription,
		Keyword:   job.Keyword,
		WordCount: job.Article.WordCount,
		Generated: now.Format(time.RFC3339),
		Body:      template.HTML(job.Article.HTML),
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("rendering page: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteHTML writes the page for job to path.
func WriteHTML(path string, job Job) error {
	data, err := RenderHTML(job)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

var langCodes = map[string]string{
	"arabic":  "ar",
	"english": "en",
	"french":  "fr",
	"german":  "de",
	"spanish": "es",
	"hebrew":  "he",
	"persian": "fa",
	"urdu":    "ur",
}

func langCode(language string) string {
	l := strings.ToLower(strings.TrimSpace(language))
	if code, ok := langCodes[l]; ok {
		return code
	}
	if len(l) == 2 {
		return l
	}
	return "en"
}

func isRTL(language string) bool {
	switch langCode(language) {
	case "ar", "he", "fa", "ur":
		return true
	}
	return false
}
