// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish posts finished articles to a WordPress site as drafts
// through the REST API.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/content-engine/internal/httputil"
	"github.com/pdiddy/content-engine/pkg/types"
)

const (
	postsRoute     = "/wp-json/wp/v2/posts"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 2048
)

// Publisher creates a post from an article and returns its link.
type Publisher interface {
	Publish(ctx context.Context, a *types.Article) (string, error)
}

// WordPress publishes drafts with an application password.
type WordPress struct {
	BaseURL   string
	Username  string
	Password  string
	UserAgent string
	Client    *http.Client
	Log       io.Writer
}

// NewWordPress builds a WordPress publisher from cfg. URL, username, and
// application password are all required.
func NewWordPress(cfg types.WordPressConfig, log io.Writer) (*WordPress, error) {
	var missing []string
	if cfg.URL == "" {
		missing = append(missing, "wordpress.url")
	}
	if cfg.Username == "" {
		missing = append(missing, "wordpress.username")
	}
	if cfg.AppPassword == "" {
		missing = append(missing, "wordpress application password")
	}
	if len(missing) > 0 {
		return nil, &types.Error{Kind: types.KindPublishFailed, Op: "publish", Detail: "not configured: missing " + strings.Join(missing, ", ")}
	}
	return &WordPress{
		BaseURL:   strings.TrimRight(cfg.URL, "/"),
		Username:  cfg.Username,
		Password:  cfg.AppPassword,
		UserAgent: httputil.UserAgent(cfg.HTTPConfig),
		Client:    httputil.NewClient(cfg.HTTPConfig, defaultTimeout),
		Log:       log,
	}, nil
}

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

type postResponse struct {
	ID   int    `json:"id"`
	Link string `json:"link"`
}

// Publish creates a draft post for a and returns the post link. Any
// outcome other than 200 or 201 with a link is a PublishFailed error
// carrying the status and response body.
func (w *WordPress) Publish(ctx context.Context, a *types.Article) (string, error) {
	if a == nil {
		return "", types.PreconditionNotMet("publish", "article")
	}
	payload, err := json.Marshal(postRequest{Title: a.Title, Content: a.HTML, Status: "draft"})
	if err != nil {
		return "", fmt.Errorf("encoding post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.BaseURL+postsRoute, bytes.NewReader(payload))
	if err != nil {
		return "", publishFailed("building request", err)
	}
	req.SetBasicAuth(w.Username, w.Password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", w.UserAgent)

	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	// Creating a post is not idempotent; a 503 may follow a partial write.
	resp, err := httputil.DoWithRetryOn(ctx, client, req, 0, w.Log, httputil.Throttled)
	if err != nil {
		return "", publishFailed("request failed", err)
	}
	body, err := httputil.ReadBody(resp, 1<<20)
	if err != nil {
		return "", publishFailed("reading response", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &types.Error{
			Kind:   types.KindPublishFailed,
			Op:     "publish",
			Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(body), maxErrorBody)),
		}
	}
	var pr postResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return "", publishFailed("decoding response", err)
	}
	if pr.Link == "" {
		return "", &types.Error{Kind: types.KindPublishFailed, Op: "publish", Detail: fmt.Sprintf("status %d: response has no link", resp.StatusCode)}
	}
	return pr.Link, nil
}

func publishFailed(detail string, err error) error {
	return &types.Error{Kind: types.KindPublishFailed, Op: "publish", Detail: detail, Err: err}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
