package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/portcullisgw/portcullis/internal/authz"
	"github.com/portcullisgw/portcullis/internal/handler"
	"github.com/portcullisgw/portcullis/internal/keystore"
	"github.com/portcullisgw/portcullis/internal/metrics"
	"github.com/portcullisgw/portcullis/internal/openapi"
	"github.com/portcullisgw/portcullis/internal/ratelimit"
	"github.com/portcullisgw/portcullis/internal/server/middleware"
	"github.com/portcullisgw/portcullis/internal/service"
	"github.com/portcullisgw/portcullis/internal/tufin"
	"github.com/portcullisgw/portcullis/internal/ui"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	BaseURL         string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	APIKeyHeader    string
	MaxBodySize     int64 // bytes
	RateLimit       int   // requests per window, per source address
	RateWindow      time.Duration
	TLSCertFile     string
	TLSKeyFile      string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		BaseURL:         "http://localhost:8080",
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		APIKeyHeader:    "X-API-Key",
		MaxBodySize:     10 * 1024 * 1024, // 10MB
		RateLimit:       60,
		RateWindow:      60 * time.Second,
	}
}

// Deps carries the collaborators the server wires into its routes.
type Deps struct {
	Keys      keystore.Store
	AuthSvc   *service.AuthService
	Admins    *service.AdminRegistry
	Table     authz.Table
	Workflows authz.WorkflowTable
	Tufin     tufin.Client
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Logger    *slog.Logger
}

// Server is the top-level HTTP server for Portcullis. It owns the Chi router,
// the global rate limiter, and the authorizer built from the permission table.
type Server struct {
	cfg        Config
	router     chi.Router
	keys       keystore.Store
	authSvc    *service.AuthService
	admins     *service.AdminRegistry
	table      authz.Table
	authorizer *authz.Authorizer
	workflows  authz.WorkflowTable
	tufin      tufin.Client
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	limiter    *ratelimit.Limiter
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server, wires up all routes and middleware, and validates the
// permission table against the operations actually registered. A table that
// cannot cover the registered routes is a configuration error: New fails and
// the process must not serve traffic.
func New(cfg Config, deps Deps) (*Server, error) {
	s := &Server{
		cfg:        cfg,
		keys:       deps.Keys,
		authSvc:    deps.AuthSvc,
		admins:     deps.Admins,
		table:      deps.Table,
		authorizer: authz.New(deps.Table),
		workflows:  deps.Workflows,
		tufin:      deps.Tufin,
		metrics:    deps.Metrics,
		gatherer:   deps.Gatherer,
		limiter:    ratelimit.New(cfg.RateLimit, cfg.RateWindow),
		logger:     deps.Logger,
	}
	if err := s.setupRouter(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setupRouter() error {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", s.cfg.APIKeyHeader, "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))
	r.Use(middleware.Metrics(s.metrics))
	r.Use(s.limitBody)

	// Admission control runs before any credential work: an over-limit
	// request is rejected 429 even when it carries no (or bad) credentials.
	r.Use(middleware.GlobalRateLimit(s.limiter, s.metrics))

	// RequirePermission middlewares are built through this helper so the
	// registered set is known for table validation below.
	var registered []authz.Permission
	perm := func(p authz.Permission) func(http.Handler) http.Handler {
		registered = append(registered, p)
		return middleware.RequirePermission(s.authorizer, p, s.metrics)
	}

	// --- Health checks and operational endpoints (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// --- OpenAPI document (no auth required) ---
	doc := openapi.Generate(s.cfg.BaseURL, s.cfg.APIKeyHeader, s.table)
	r.Get("/openapi.json", handler.NewOpenAPIHandler(doc).Serve)

	// --- Landing page ---
	index, err := ui.Dist.ReadFile("dist/index.html")
	if err != nil {
		return fmt.Errorf("ui assets: %w", err)
	}
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(index)
	})

	// --- API routes ---
	r.Route("/api/v1", func(r chi.Router) {

		// System APIs (admin management)
		r.Route("/system", func(r chi.Router) {
			sysHandler := handler.NewSystemHandler(s.authSvc, s.admins, s.keys, s.table, s.workflows)

			// Session endpoints are unauthenticated (login) or self-authenticated (logout)
			r.Post("/admin/session", sysHandler.Login)
			r.Delete("/admin/session", sysHandler.Logout)

			// All other system endpoints require admin authentication
			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(s.authSvc, s.cfg.APIKeyHeader, s.metrics))
				r.Use(middleware.RequireAdmin())

				// Admin management
				r.Get("/admin", sysHandler.ListAdmins)
				r.Post("/admin", sysHandler.CreateAdmin)

				// API key management
				r.Get("/api_key", sysHandler.ListAPIKeys)
				r.Post("/api_key", sysHandler.CreateAPIKey)
				r.Delete("/api_key/{keyId}", sysHandler.RevokeAPIKey)

				// Read-only authorization views
				r.Get("/permission", sysHandler.Permissions)
				r.Get("/workflow", sysHandler.Workflows)
			})
		})

		// Proxy surface: API-key callers, one permission per operation.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAPIKey(s.authSvc, s.cfg.APIKeyHeader, s.metrics))

			deviceHandler := handler.NewDeviceHandler(s.tufin)
			topologyHandler := handler.NewTopologyHandler(s.tufin)
			rulesHandler := handler.NewRulesHandler(s.tufin)
			ticketHandler := handler.NewTicketHandler(s.tufin, s.workflows)
			statusHandler := handler.NewStatusHandler(s.tufin)

			r.With(perm(authz.PermAccessSecureEndpoint)).
				Get("/secure", statusHandler.Secure)
			r.With(perm(authz.PermTestTufinConnection)).
				Get("/tufin/status", statusHandler.TufinStatus)

			// SecureTrack devices
			r.With(perm(authz.PermListDevices), middleware.RateLimit(100)).
				Get("/devices", deviceHandler.List)
			r.With(perm(authz.PermGetDevice), middleware.RateLimit(100)).
				Get("/devices/{deviceId}", deviceHandler.Get)
			r.With(perm(authz.PermAddDevices)).
				Post("/devices/bulk", deviceHandler.Add)
			r.With(perm(authz.PermImportManagedDevices)).
				Post("/devices/bulk/import", deviceHandler.Import)

			// SecureTrack topology
			r.With(perm(authz.PermGetTopologyPath), middleware.RateLimit(20)).
				Get("/topology/path", topologyHandler.Path)
			r.With(perm(authz.PermGetTopologyPathImage), middleware.RateLimit(20)).
				Get("/topology/path_image", topologyHandler.PathImage)

			// SecureTrack rule queries
			r.With(perm(authz.PermQueryRulesGraphQL)).
				Post("/rules/query", rulesHandler.Query)

			// SecureChange tickets
			r.With(perm(authz.PermListTickets), middleware.RateLimit(100)).
				Get("/tickets", ticketHandler.List)
			r.With(perm(authz.PermCreateTicket), middleware.RateLimit(30)).
				Post("/tickets", ticketHandler.Create)
			r.With(perm(authz.PermGetTicket), middleware.RateLimit(100)).
				Get("/tickets/{ticketId}", ticketHandler.Get)
			r.With(perm(authz.PermUpdateTicket), middleware.RateLimit(30)).
				Put("/tickets/{ticketId}", ticketHandler.Update)
		})
	})

	// Every registered operation must have a table entry before the server
	// may accept traffic. Missing entries fail startup, never fail open.
	if err := s.table.Validate(registered); err != nil {
		return err
	}

	s.router = r
	return nil
}

// limitBody caps request bodies at cfg.MaxBodySize so a single caller cannot
// buffer unbounded payloads through the proxy.
func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.MaxBodySize > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the key store is
// reachable, or 503 when authentication would fail on store errors.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if err := s.keys.Ping(r.Context()); err != nil {
		checks["keystore"] = "error: " + err.Error()
		status = "degraded"
	} else {
		checks["keystore"] = "ok"
	}

	if status != "ok" {
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before returning.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Listen for shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in background goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "tls", s.cfg.TLSCertFile != "")
		var err error
		if s.cfg.TLSCertFile != "" && s.cfg.TLSKeyFile != "" {
			err = s.httpServer.ListenAndServeTLS(s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
