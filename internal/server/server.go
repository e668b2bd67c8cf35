// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes pipeline transitions over HTTP for one shared
// session. Handlers run concurrently, so every session access goes through
// the server mutex.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/content-engine/internal/export"
	"github.com/pdiddy/content-engine/internal/pipeline"
	"github.com/pdiddy/content-engine/internal/publish"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Server serves the pipeline API.
type Server struct {
	orch      *pipeline.Orchestrator
	publisher publish.Publisher
	exportCfg *types.ExportConfig
	logger    *slog.Logger

	mu      sync.Mutex
	session *pipeline.Session
}

// Option configures a Server.
type Option func(*Server)

// WithPublisher enables POST /api/publish.
func WithPublisher(p publish.Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithRunLog appends a spreadsheet row for every publish attempt.
func WithRunLog(cfg types.ExportConfig) Option {
	return func(s *Server) { s.exportCfg = &cfg }
}

// New returns a Server starting with an empty session and an empty brief.
func New(orch *pipeline.Orchestrator, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{orch: orch, logger: logger, session: &pipeline.Session{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router returns the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := r.Group("/api")
	api.POST("/session", s.handleNewSession)
	api.GET("/session", s.handleGetSession)
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/outline", s.transition(s.orch.Outline))
	api.POST("/outline/retry", s.transition(s.orch.RetryOutline))
	api.POST("/generate", s.transition(s.orch.Generate))
	api.POST("/generate/retry", s.transition(s.orch.RetryGeneration))
	api.GET("/validation", s.handleValidation)
	api.POST("/publish", s.handlePublish)
	return r
}

// sessionView is the JSON shape of the session with its derived state.
type sessionView struct {
	State pipeline.State `json:"state"`
	*pipeline.Session
}

func (s *Server) view() sessionView {
	return sessionView{State: s.session.State(), Session: s.session}
}

type briefRequest struct {
	RelatedKeywords []string       `json:"related_keywords"`
	Related         string         `json:"related"`
	Anchors         []types.Anchor `json:"anchors"`
	AnchorsText     string         `json:"anchors_text"`
	TargetDomain    string         `json:"target_domain"`
	Language        string         `json:"language"`
}

func (b briefRequest) brief() (types.Brief, error) {
	out := types.Brief{
		RelatedKeywords: b.RelatedKeywords,
		Anchors:         b.Anchors,
		TargetDomain:    b.TargetDomain,
		Language:        b.Language,
	}
	if b.Related != "" {
		out.RelatedKeywords = append(out.RelatedKeywords, types.ParseRelatedKeywords(b.Related)...)
	}
	if b.AnchorsText != "" {
		parsed, err := types.ParseAnchors(b.AnchorsText)
		if err != nil {
			return types.Brief{}, err
		}
		out.Anchors = append(out.Anchors, parsed...)
	}
	return out, nil
}

func (s *Server) handleNewSession(c *gin.Context) {
	var req briefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, types.InvalidInput("session", err.Error()))
		return
	}
	brief, err := req.brief()
	if err != nil {
		s.writeError(c, err)
		return
	}
	sess, err := pipeline.NewSession(brief)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
	c.JSON(http.StatusCreated, s.view())
}

func (s *Server) handleGetSession(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.view())
}

type analyzeRequest struct {
	Keyword string `json:"keyword"`
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, types.InvalidInput("analyze", err.Error()))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.orch.Analyze(c.Request.Context(), s.session, req.Keyword); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.view())
}

// transition adapts a session-only orchestrator step to a handler.
func (s *Server) transition(step func(context.Context, *pipeline.Session) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := step(c.Request.Context(), s.session); err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, s.view())
	}
}

func (s *Server) handleValidation(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, err := s.orch.Validate(s.session)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": report.OK(), "report": report})
}

func (s *Server) handlePublish(c *gin.Context) {
	if s.publisher == nil {
		s.writeError(c, &types.Error{Kind: types.KindPublishFailed, Op: "publish", Detail: "publishing is not configured"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Article == nil {
		s.writeError(c, types.PreconditionNotMet("publish", "article"))
		return
	}
	if s.session.Article.Degraded {
		s.writeError(c, &types.Error{Kind: types.KindPreconditionNotMet, Op: "publish", Detail: "article is degraded; retry generation first"})
		return
	}

	link, err := s.publisher.Publish(c.Request.Context(), s.session.Article)
	s.recordPublish(link, err)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}

func (s *Server) recordPublish(link string, pubErr error) {
	if s.exportCfg == nil {
		return
	}
	rec := export.NewRecord(s.session.Keyword, s.session.Article, s.session.Brief, time.Now())
	rec.Status = export.StatusPublished
	rec.Link = link
	if pubErr != nil {
		rec.Status = export.StatusFailed
	}
	path := export.LogPath(*s.exportCfg)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.logger.Warn("run log append failed", "error", err)
		return
	}
	if err := export.AppendLog(path, rec); err != nil {
		s.logger.Warn("run log append failed", "error", err)
	}
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(err error) int {
	switch types.KindOf(err) {
	case types.KindInvalidInput:
		return http.StatusBadRequest
	case types.KindPreconditionNotMet:
		return http.StatusConflict
	case types.KindGenerationFailed, types.KindPublishFailed:
		return http.StatusBadGateway
	}
	if errors.Is(err, context.Canceled) {
		return 499
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := StatusFor(err)
	s.logger.Warn("request failed", "path", c.FullPath(), "status", status, "kind", types.KindOf(err), "error", err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "kind": types.KindOf(err)})
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
