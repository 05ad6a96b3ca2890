package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Clark-Hu/library-service/internal/config"
	"github.com/Clark-Hu/library-service/internal/ratelimit"
	"github.com/Clark-Hu/library-service/internal/service"
)

// HealthChecker reports whether the backing database is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// RateLimiter decides whether a client key may issue another request.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
}

// Dependencies groups everything the HTTP layer needs from the rest of the process.
// A nil Limiter disables rate limiting.
type Dependencies struct {
	Health  HealthChecker
	Users   *service.UserService
	Books   *service.BookService
	Limiter RateLimiter
	Logger  *slog.Logger
}

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg     config.Config
	health  HealthChecker
	users   *service.UserService
	books   *service.BookService
	limiter RateLimiter
	logger  *slog.Logger
	router  chi.Router
	httpSrv *http.Server
	now     func() time.Time
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		health:  deps.Health,
		users:   deps.Users,
		books:   deps.Books,
		limiter: deps.Limiter,
		logger:  logger,
		router:  chi.NewRouter(),
		now:     func() time.Time { return time.Now().UTC() },
	}

	s.router.Use(middleware.RealIP)
	s.router.Use(s.withRequestID)
	s.router.Use(s.withRequestLog)
	s.router.Use(middleware.Recoverer)
	s.router.Use(withSecurityHeaders)
	s.router.Use(withCORS(cfg.CORSOrigin))
	if s.limiter != nil {
		s.router.Use(s.withRateLimit)
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.NotFound(s.handleNotFound)
	s.router.MethodNotAllowed(s.handleNotFound)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/users", func(r chi.Router) {
		r.Get("/", s.handleListUsers)
		r.Post("/", s.handleCreateUser)
		r.Get("/{id}", s.handleGetUser)
		r.Post("/{userId}/borrow/{bookId}", s.handleBorrowBook)
		r.Post("/{userId}/return/{bookId}", s.handleReturnBook)
	})

	s.router.Route("/books", func(r chi.Router) {
		r.Get("/", s.handleListBooks)
		r.Post("/", s.handleCreateBook)
		r.Get("/{id}", s.handleGetBook)
	})
}

// Handler exposes the fully configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start boots the HTTP server and blocks until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, r, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: s.now().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.health == nil {
		s.respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "Database not configured")
		return
	}
	if err := s.health.HealthCheck(ctx); err != nil {
		loggerFromContext(r.Context(), s.logger).Warn("health check failed", "error", err)
		s.respondError(w, r, http.StatusServiceUnavailable, codeUnavailable, "Database unavailable")
		return
	}
	s.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, r, http.StatusNotFound, codeNotFound, fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path))
}

func (s *Server) respondJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			loggerFromContext(r.Context(), s.logger).Error("failed to encode response", "error", err)
		}
	}
}
