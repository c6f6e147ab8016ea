package display

import (
	"context"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/notefeed/pkg/client"
	"github.com/DeBrosOfficial/notefeed/pkg/httputil"
	"github.com/DeBrosOfficial/notefeed/pkg/logging"
)

// HealthReporter is the part of the client the health endpoint needs
type HealthReporter interface {
	Health() (*client.HealthStatus, error)
}

// ServerConfig configures the feed page
type ServerConfig struct {
	ListenAddr string
	Title      string
	// RefreshSeconds sets the page auto-refresh; 0 disables it
	RefreshSeconds int
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{if .Refresh}}<meta http-equiv="refresh" content="{{.Refresh}}">{{end}}
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{if .Count}}{{.Count}} received, last at {{.Updated}}{{else}}no events yet{{end}}</p>
<pre>{{.Rendered}}</pre>
</body>
</html>
`))

// Server serves the latest event of a feed over HTTP
type Server struct {
	logger *logging.ColoredLogger
	config ServerConfig
	feed   *Feed
	health HealthReporter
	router chi.Router
	server *http.Server
}

// NewServer creates the HTTP page for feed. health may be nil.
func NewServer(logger *logging.ColoredLogger, cfg ServerConfig, feed *Feed, health HealthReporter) (*Server, error) {
	if logger == nil {
		var err error
		logger, err = logging.NewColoredLogger(logging.ComponentHTTP, true)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}
	if cfg.Title == "" {
		cfg.Title = "notefeed"
	}

	s := &Server{
		logger: logger,
		config: cfg,
		feed:   feed,
		health: health,
		router: chi.NewRouter(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logging.NewStandardLogger(logger, logging.ComponentHTTP),
		NoColor: true,
	}))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(10 * time.Second))

	s.router.Get("/", s.handlePage)
	s.router.Get("/latest.json", s.handleLatest)
	s.router.Get("/healthz", s.handleHealth)

	return s, nil
}

// Router returns the chi router for testing or extension
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	snap := s.feed.Snapshot()
	data := struct {
		Title    string
		Refresh  int
		Count    int
		Updated  string
		Rendered string
	}{
		Title:    s.config.Title,
		Refresh:  s.config.RefreshSeconds,
		Count:    snap.Count,
		Updated:  snap.Updated.Format(time.RFC3339),
		Rendered: snap.Rendered,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.ComponentError(logging.ComponentHTTP, "Failed to render page", zap.Error(err))
	}
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	httputil.WriteRawJSON(w, http.StatusOK, s.feed.Render())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		httputil.WriteSuccess(w)
		return
	}

	status, err := s.health.Health()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	code := http.StatusOK
	if status.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, status)
}

// Start serves until ctx is cancelled, then shuts down
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Start on an existing listener
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.ComponentInfo(logging.ComponentHTTP, "Feed page listening",
		zap.String("listen_addr", listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.ComponentError(logging.ComponentHTTP, "Feed page server error", zap.Error(err))
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errCh:
		return err
	}
}

// Stop gracefully stops the server
func (s *Server) Stop() error {
	if s == nil || s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.ComponentError(logging.ComponentHTTP, "Feed page shutdown error", zap.Error(err))
		return err
	}

	s.logger.ComponentInfo(logging.ComponentHTTP, "Feed page stopped")
	return nil
}
