// Package web serves the tactile dashboard over HTTP: a page with the row
// buttons, go-echarts charts, a PNG snapshot and a small JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/banshee-data/tactile/internal/dashboard"
	"github.com/banshee-data/tactile/internal/frame"
	"github.com/banshee-data/tactile/internal/monitoring"
)

//go:embed templates/*
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.html.tmpl"))

// Dashboard is the view of the dashboard state the server needs.
// *dashboard.Dashboard implements it.
type Dashboard interface {
	SelectRow(row int) error
	Selected() int
	Rows() int
	Cols() int
	Range() dashboard.DisplayRange
	Mode() dashboard.Mode
	Snapshot() frame.Frame
	Totals() dashboard.Totals
}

// AdminRouter attaches debug routes to a mux. The serial mux implements it.
type AdminRouter interface {
	AttachAdminRoutes(*http.ServeMux)
}

// Server handles the HTTP interface of the dashboard.
type Server struct {
	address string
	dash    Dashboard
	store   *dashboard.Store
	admin   []AdminRouter
	server  *http.Server
	handler http.Handler
}

// Config contains configuration options for the web server.
type Config struct {
	Address   string
	Dashboard Dashboard
	// Store must be attached to Dashboard as a sink.
	Store *dashboard.Store
	Admin []AdminRouter
}

// NewServer creates a new web server with the provided configuration.
func NewServer(cfg Config) *Server {
	s := &Server{
		address: cfg.Address,
		dash:    cfg.Dashboard,
		store:   cfg.Store,
		admin:   cfg.Admin,
	}
	s.handler = s.setupRoutes()
	s.server = &http.Server{
		Addr:              s.address,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves HTTP until ctx is done, then shuts the server down.
func (s *Server) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("Starting HTTP server on %s", s.address)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		// Force close the server if graceful shutdown fails
		if err := s.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}

	monitoring.Logf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/{$}", s.handlePage)
	mux.HandleFunc("/charts", s.handleCharts)
	mux.HandleFunc("/snapshot.png", s.handleSnapshot)
	mux.HandleFunc("/api/select", s.handleSelect)
	mux.HandleFunc("/api/frame", s.handleFrame)

	s.attachAdminRoutes(mux)
	for _, a := range s.admin {
		a.AttachAdminRoutes(mux)
	}
	return mux
}

type pageData struct {
	Title    string
	Rows     []int
	Selected int
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	rows := make([]int, s.dash.Rows())
	for i := range rows {
		rows[i] = i
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, pageData{
		Title:    dashboard.WindowTitle,
		Rows:     rows,
		Selected: s.dash.Selected(),
	}); err != nil {
		monitoring.Logf("web: render dashboard page: %v", err)
	}
}
