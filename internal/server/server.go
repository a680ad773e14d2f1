package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/todos-api/apiserver/config"
	"github.com/todos-api/apiserver/internal/auth"
	"github.com/todos-api/apiserver/internal/db"
	"github.com/todos-api/apiserver/internal/handlers"
	"github.com/todos-api/apiserver/internal/logger"
	"github.com/todos-api/apiserver/internal/mq"
	"github.com/todos-api/apiserver/internal/services"
	"github.com/todos-api/apiserver/internal/storage"
	"github.com/todos-api/apiserver/internal/store"
	"github.com/todos-api/apiserver/internal/store/memstore"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, errors.New("JWT_SECRET is required")
	}

	srv := &Server{}
	var (
		userRepo services.UserRepository
		todoRepo services.TodoRepository
	)
	switch cfg.Database.Driver {
	case config.DriverMemory:
		mem := memstore.New()
		userRepo = mem.Users()
		todoRepo = mem.Todos()
	case config.DriverPostgres, "":
		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		srv.db = dbConn
		userRepo = store.NewUserRepository(dbConn)
		todoRepo = store.NewTodoRepository(dbConn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		srv.closeResources()
		return nil, fmt.Errorf("open message queue: %w", err)
	}
	srv.queue = queue

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		srv.closeResources()
		return nil, fmt.Errorf("open object storage: %w", err)
	}

	// Optional backends stay untyped nils so the services can skip them.
	var events services.EventPublisher
	if queue != nil {
		events = queue
	}
	var archive *services.Archiver
	if objects != nil {
		archive = services.NewArchiver(objects)
	}

	userService := services.NewUserService(userRepo, auth.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, cfg.Auth.TokenTTL, events)
	todoService := services.NewTodoService(todoRepo, events, archive)
	gate := auth.NewGate(tokens, cfg.Auth.AdminUsername)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, gate)
	})
	router.Route("/{userID}/todos", func(r chi.Router) {
		handlers.TodoRouter(r, todoService, gate)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	srv.router = router
	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Log.Info("server configured",
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("mq_backend", cfg.MQ.Backend),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.Int("port", port),
	)
	return srv, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	logger.Log.Info("listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases the database and queue.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.closeResources()
	return err
}

func (s *Server) closeResources() {
	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			logger.Log.Warn("close message queue failed", zap.Error(err))
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
