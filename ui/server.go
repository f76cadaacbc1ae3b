package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"biasev/app"
	"biasev/domain/stats"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html static/*
var embeddedFiles embed.FS

// Services are the application services the web surface drives
type Services struct {
	Datasets    *app.DatasetService
	Analysis    *app.AnalysisService
	Predictions *app.PredictionService
}

// Options tune request handling
type Options struct {
	PreviewRows    int
	MaxUploadBytes int64
	SessionTTL     time.Duration
}

// Server renders the workbench page and serves the JSON API
type Server struct {
	router      *gin.Engine
	templates   *template.Template
	datasets    *app.DatasetService
	analysis    *app.AnalysisService
	predictions *app.PredictionService
	opts        Options
	logger      *zap.Logger
}

// NewServer creates a web server instance with routes installed
func NewServer(svc Services, opts Options, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = 5
	}

	funcMap := template.FuncMap{
		"fmtFloat": func(v float64) string { return fmt.Sprintf("%.4f", v) },
		"fmtStat": func(v *float64) string {
			if v == nil {
				return ""
			}
			return fmt.Sprintf("%.4f", *v)
		},
		"fmtPValue": func(v *float64) string {
			if v == nil {
				return ""
			}
			return fmt.Sprintf("%.4g", *v)
		},
		"isResidual": func(term string) bool { return term == stats.ResidualTerm },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:      gin.New(),
		templates:   templates,
		datasets:    svc.Datasets,
		analysis:    svc.Analysis,
		predictions: svc.Predictions,
		opts:        opts,
		logger:      logger.Named("ui"),
	}

	if err := s.setupMiddleware(); err != nil {
		return nil, err
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/upload", s.handleUpload)
	s.router.POST("/anova", s.handleAnova)
	s.router.POST("/composition", s.handleComposition)
	s.router.POST("/predict", s.handlePredict)
	s.router.GET("/healthz", s.handleHealth)

	s.router.Any("/api/*any", gin.WrapH(s.apiRouter()))
}

// setupMiddleware installs recovery, request logging, sessions and static files
func (s *Server) setupMiddleware() error {
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger(s.logger))
	s.router.Use(s.sessionCookie())

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to open static files: %w", err)
	}
	s.router.StaticFS("/static", http.FS(staticFS))
	return nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
// for at most shutdownTimeout
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server", zap.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
