package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/storepulse/storepulse/internal/config"
	"github.com/storepulse/storepulse/internal/domain"
	"github.com/storepulse/storepulse/internal/identity"
	"github.com/storepulse/storepulse/internal/repository"
	"github.com/storepulse/storepulse/internal/service"
	"github.com/storepulse/storepulse/internal/session"
	"github.com/storepulse/storepulse/internal/storage"
)

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg      config.Config
	storage  *storage.Storage
	repo     *repository.Repository
	stores   *service.StoreService
	ratings  *service.RatingService
	sessions *session.Manager
	identity identity.Client
	logger   *zap.Logger
	router   chi.Router
	httpSrv  *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, st *storage.Storage, repo *repository.Repository, sessions *session.Manager, idc identity.Client, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	s := &Server{
		cfg:      cfg,
		storage:  st,
		repo:     repo,
		stores:   service.NewStoreService(repo),
		ratings:  service.NewRatingService(repo),
		sessions: sessions,
		identity: idc,
		logger:   logger,
		router:   r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/signup", s.handleSignup)
		r.Group(func(r chi.Router) {
			r.Use(s.withSession)
			r.Post("/logout", s.handleLogout)
			r.Get("/session", s.handleSession)
			r.Post("/password", s.handleChangePassword)
		})
	})

	s.router.Route("/stores", func(r chi.Router) {
		r.Use(s.withSession)
		r.With(s.requireRole(domain.RoleAdmin, domain.RoleUser, domain.RoleOwner)).Get("/", s.handleListStores)
		r.With(s.requireRole(domain.RoleAdmin)).Post("/", s.handleCreateStore)
		r.Route("/{storeID}", func(r chi.Router) {
			r.With(s.requireRole(domain.RoleAdmin, domain.RoleOwner)).Get("/ratings", s.handleListStoreRatings)
			r.With(s.requireRole(domain.RoleUser)).Post("/ratings", s.handleSubmitRating)
			r.With(s.requireRole(domain.RoleAdmin, domain.RoleUser, domain.RoleOwner)).Get("/rating", s.handleGetMyRating)
		})
	})

	s.router.Group(func(r chi.Router) {
		r.Use(s.withSession)
		r.With(s.requireRole(domain.RoleAdmin)).Get("/users", s.handleListUsers)
		r.With(s.requireRole(domain.RoleAdmin)).Get("/admin/stats", s.handleAdminStats)
	})
}

// Start boots the HTTP server and blocks until it stops or ctx is cancelled.
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

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.storage.HealthCheck(ctx); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
