// Package server is the HTTP surface of the site: pages, the form fallback,
// live sessions, logo files and the embedded client assets.
package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/codecraftpk/craftsite/internal/carousel"
	"github.com/codecraftpk/craftsite/internal/config"
	"github.com/codecraftpk/craftsite/internal/contact"
	"github.com/codecraftpk/craftsite/internal/content"
	"github.com/codecraftpk/craftsite/internal/errors"
	"github.com/codecraftpk/craftsite/internal/live"
	"github.com/codecraftpk/craftsite/internal/logging"
	"github.com/codecraftpk/craftsite/internal/logos"
	"github.com/codecraftpk/craftsite/internal/navigation"
	"github.com/codecraftpk/craftsite/internal/schedule"
	"github.com/codecraftpk/craftsite/internal/scroll"
	"github.com/codecraftpk/craftsite/internal/watcher"
)

// LogoURLPrefix is where logo files are served.
const LogoURLPrefix = "/assets/logos"

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	maxFormBytes      = 64 << 10
)

// Deps are the collaborators of a Server.
type Deps struct {
	Site    *content.Site
	Catalog *logos.Catalog
	Relay   contact.Relay
	// Recorder is optional.
	Recorder contact.Recorder
	Clock    schedule.Clock
	Logger   logging.Logger
}

// Server serves the site and its live sessions.
type Server struct {
	config   *config.Config
	site     *content.Site
	catalog  *logos.Catalog
	relay    contact.Relay
	recorder contact.Recorder
	hub      *live.Hub
	limiter  *RateLimiter
	proxies  TrustedProxies
	clock    schedule.Clock
	logger   logging.Logger
	handler  http.Handler

	serverMutex  sync.RWMutex
	httpServer   *http.Server
	shutdownOnce sync.Once
}

// New creates a server. Nothing listens until Start or Serve.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Clock == nil {
		deps.Clock = schedule.Real()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Site == nil {
		site, err := content.Default()
		if err != nil {
			return nil, err
		}
		deps.Site = site
	}
	if deps.Catalog == nil {
		deps.Catalog = logos.NewCatalog(nil, LogoURLPrefix, deps.Logger)
	}

	proxies, err := ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:   cfg,
		site:     deps.Site,
		catalog:  deps.Catalog,
		relay:    deps.Relay,
		recorder: deps.Recorder,
		hub:      live.NewHub(deps.Logger),
		limiter:  NewRateLimiter(cfg.RateLimit, deps.Clock, deps.Logger),
		proxies:  proxies,
		clock:    deps.Clock,
		logger:   deps.Logger.WithComponent("server"),
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /sections", s.handleSections)
	mux.HandleFunc("POST /contact", s.handleContact)
	mux.HandleFunc("GET /live", s.handleLive)
	mux.HandleFunc("GET /api/logos", s.handleLogos)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /static/", staticHandler())
	mux.Handle("GET "+LogoURLPrefix+"/", logoHandler(s.config.Assets.LogoDir))

	return Chain(mux,
		RequestIDMiddleware(),
		LoggingMiddleware(s.logger),
		RecoveryMiddleware(s.logger),
		SecurityMiddleware(SecurityConfigFromAppConfig(s.config, s.proxies, s.logger)),
	)
}

// Handler returns the complete HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the live session registry.
func (s *Server) Hub() *live.Hub {
	return s.hub
}

// Start listens on the configured address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Server.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.NewEnhancedError("Failed to start server on "+addr, err,
			errors.ServerStartError(err, s.config.Server.Port))
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.serverMutex.Lock()
	s.httpServer = server
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Server listening", "addr", ln.Addr().String(), "environment", s.config.Server.Environment)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ln) }()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return errors.NewInternalError("SERVER_FAILED", "http server stopped", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.Shutdown(shutdownCtx)
	<-errCh
	return err
}

// Shutdown ends every live session and then stops the HTTP server. Hijacked
// websocket connections are not tracked by net/http, so sessions go first.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server", "sessions", s.hub.Count())

		s.hub.Close()
		s.limiter.Stop()

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

// HandleLogoChanges is the watcher handler: it rescans the catalog and hands
// the new entries to every live session.
func (s *Server) HandleLogoChanges(ctx context.Context, events []watcher.ChangeEvent) error {
	s.logger.Debug(ctx, "Logo directory changed", "events", len(events))
	s.catalog.Rescan(ctx)
	s.hub.UpdateLogos(ctx, s.catalog.Snapshot())
	return nil
}

// sessionConfig builds the live session configuration for r.
func (s *Server) sessionConfig(r *http.Request) live.Config {
	cfg := s.config
	return live.Config{
		Clock: s.clock,
		Logos: s.catalog.Snapshot(),
		Carousel: carousel.Options{
			Tick:      cfg.Carousel.Tick,
			Step:      cfg.Carousel.Step,
			ItemWidth: cfg.Carousel.ItemWidth,
			Gap:       cfg.Carousel.Gap,
			Viewport:  cfg.Carousel.Viewport,
		},
		Navigation: navigation.Options{
			RetryInterval: cfg.Navigation.RetryInterval,
			MaxAttempts:   cfg.Navigation.MaxAttempts,
		},
		Scroll: scroll.Options{
			InitDelay:     cfg.Scroll.InitDelay,
			FrameInterval: cfg.Scroll.FrameInterval,
			Engine:        scroll.EngineOptions{Duration: cfg.Scroll.Duration},
		},
		Contact:   s.contactConfig(),
		Relay:     s.relay,
		Recorder:  s.recorder,
		Limiter:   s.limiter,
		RemoteKey: s.proxies.ClientIP(r),
		Logger:    s.logger.With("request_id", RequestID(r.Context())),
	}
}

func (s *Server) contactConfig() contact.Config {
	return contact.Config{FallbackEmail: s.config.Relay.FallbackEmail}
}
