package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"dataops/internal/logging"
	"dataops/internal/session"
	"dataops/ports"
	"dataops/ui/services"
	"dataops/ui/templates/fragments"
	"dataops/ui/widgets"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Options holds presentation and runtime settings for the web front end
type Options struct {
	AppName          string
	APIBaseURL       string
	MaxUploadMB      int
	MarkdownInsights bool
	SessionTTL       time.Duration
	PollInterval     time.Duration
	GinMode          string
}

// Server represents the web server for the profiling dashboard
type Server struct {
	router        *gin.Engine
	api           ports.AnalysisAPI
	sessions      *session.Store
	templates     *template.Template
	embeddedFiles embed.FS
	render        *services.RenderService
	data          *services.DataService
	opts          Options
	log           *logrus.Entry

	// uploads run detached from the request that started them
	uploadCtx    context.Context
	cancelUpload context.CancelFunc
	uploads      sync.WaitGroup
}

// NewServer creates a new web server instance with parsed templates and routes
func NewServer(api ports.AnalysisAPI, sessions *session.Store, opts Options, logger logrus.FieldLogger) (*Server, error) {
	if opts.AppName == "" {
		opts.AppName = "DataOps Copilot"
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		router:        gin.New(),
		api:           api,
		sessions:      sessions,
		embeddedFiles: embeddedFiles,
		opts:          opts,
		log:           logging.Component(logger, "ui"),
		uploadCtx:     ctx,
		cancelUpload:  cancel,
	}

	if err := s.parseTemplates(); err != nil {
		cancel()
		return nil, err
	}
	s.render = services.NewRenderService(s.templates, logger)
	s.data = services.NewDataService(api, 10*time.Second, logger)

	s.setupMiddleware(logger)
	s.setupRoutes()
	return s, nil
}

// parseTemplates loads every embedded template under its path relative to
// ui/templates, then checks that all known fragments are present
func (s *Server) parseTemplates() error {
	templatesFS, err := fs.Sub(s.embeddedFiles, "templates")
	if err != nil {
		return fmt.Errorf("failed to create templates filesystem: %w", err)
	}

	files, err := fs.Glob(templatesFS, "*/*.html")
	if err != nil {
		return fmt.Errorf("failed to glob templates: %w", err)
	}

	s.templates = template.New("")
	for _, file := range files {
		content, err := fs.ReadFile(templatesFS, file)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", file, err)
		}
		if _, err := s.templates.New(file).Parse(string(content)); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", file, err)
		}
	}

	for _, name := range fragments.GetAllTemplatePaths() {
		if s.templates.Lookup(name) == nil {
			return fmt.Errorf("template %s is missing", name)
		}
	}
	s.log.WithField("templates", len(files)).Debug("templates parsed")
	return nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/status", s.handleStatus)

	dash := s.router.Group("/dashboard")
	{
		dash.GET("", s.handleDashboard)
		dash.GET("/view", s.handleDashboardView)
		dash.POST("/files", s.handleSelectFiles)
		dash.POST("/drag", s.handleDrag)
		dash.POST("/llm", s.handleToggleLLM)
		dash.POST("/cancel", s.handleCancel)
		dash.POST("/analyze", s.handleAnalyze)
		dash.POST("/reset", s.handleReset)
		dash.GET("/result.json", s.handleResultJSON)
		dash.GET("/result.xlsx", s.handleResultXLSX)
		dash.POST("/uploads/:id/delete", s.handleDeleteUpload)
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
// In-flight uploads are cancelled and awaited.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("starting dashboard server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.cancelUpload()
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down dashboard server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close cancels running uploads and waits for them to record their outcome
func (s *Server) Close() {
	s.cancelUpload()
	s.uploads.Wait()
}

// pageData is the model every page and fragment template receives
type pageData struct {
	Title        string
	AppName      string
	APIBaseURL   string
	PollInterval string
	Dashboard    widgets.DashboardView
}

func (s *Server) newPageData(title string) pageData {
	return pageData{
		Title:        title,
		AppName:      s.opts.AppName,
		APIBaseURL:   s.opts.APIBaseURL,
		PollInterval: s.opts.PollInterval.String(),
	}
}
