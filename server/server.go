package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/globizora/api-service/billing"
	"github.com/globizora/api-service/config"
	"github.com/globizora/api-service/database"
	"github.com/globizora/api-service/handlers"
	middleware "github.com/globizora/api-service/middlewares"
	"github.com/globizora/api-service/routes"
	"github.com/globizora/api-service/services"
	"github.com/globizora/api-service/store"
	"github.com/globizora/api-service/utils"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	cfg        config.Config
	users      store.UserStore
	redis      *redis.Client
	httpServer *http.Server
}

// New connects every backing service named in cfg and assembles the HTTP stack.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	users, err := database.OpenUserStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open user store: %w", err)
	}
	if err := users.EnsureSchema(ctx); err != nil {
		_ = users.Close(context.Background())
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		_ = users.Close(context.Background())
		return nil, err
	}
	if redisClient == nil {
		log.Println("REDIS_URL not set, using in-process rate limiting and webhook dedupe")
	}

	contact, err := newContactDispatcher(cfg.Contact)
	if err != nil {
		_ = users.Close(context.Background())
		return nil, err
	}

	return &Server{
		cfg:   cfg,
		users: users,
		redis: redisClient,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           NewHandler(cfg, users, redisClient, contact),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}, nil
}

// NewHandler wires handlers and middleware over already-open dependencies.
// A nil redisClient selects the in-process rate counter and ledger.
func NewHandler(cfg config.Config, users store.UserStore, redisClient *redis.Client, contact *services.ContactDispatcher) http.Handler {
	issuer := utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	var (
		counter middleware.Counter = middleware.NewMemoryCounter()
		ledger  billing.Ledger     = billing.NewMemoryLedger()
	)
	if redisClient != nil {
		counter = &middleware.RedisCounter{Client: redisClient}
		ledger = billing.NewRedisLedger(redisClient, billing.DefaultLedgerTTL)
	}

	if cfg.Stripe.WebhookSecret == "" {
		log.Println("STRIPE_WEBHOOK_SECRET not set, every webhook delivery will be rejected")
	}
	provider := billing.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.Currency)
	orchestrator := billing.NewOrchestrator(users, provider, ledger, cfg.Stripe.WebhookSecret, cfg.PublicURL)

	if contact == nil {
		contact = &services.ContactDispatcher{NewID: uuid.NewString}
	}

	mux := routes.NewMux(routes.Handlers{
		Users:   &handlers.UserHandler{Store: users, Tokens: issuer},
		Data:    &handlers.DataHandler{Store: users},
		Stripe:  &handlers.StripeHandler{Billing: orchestrator},
		Info:    &handlers.InfoHandler{Store: users, Environment: cfg.Environment, StartedAt: time.Now().UTC()},
		Contact: &handlers.ContactHandler{Dispatcher: contact},
		Auth:    &middleware.Auth{Tokens: issuer, Users: users},
	})

	chain := chi.Chain(chimw.RequestID)
	if cfg.TrustProxy {
		chain = append(chain, chimw.RealIP)
	}
	chain = append(chain,
		chimw.Logger,
		middleware.Recover,
		cors.Handler(corsOptions(cfg.CORSOrigins)),
		middleware.SetCommonHeaders,
		middleware.GlobalRateLimiter(counter, cfg.RateLimit.Max, cfg.RateLimit.Window),
	)
	return chain.Handler(mux)
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.APIKeyHeader},
		ExposedHeaders: []string{chimw.RequestIDHeader},
		MaxAge:         300,
	}
}

func newContactDispatcher(cfg config.ContactConfig) (*services.ContactDispatcher, error) {
	d := &services.ContactDispatcher{NewID: uuid.NewString}

	if cfg.ContactArchiveEnabled() {
		archive, err := services.NewS3ContactArchive(cfg)
		if err != nil {
			return nil, fmt.Errorf("contact archive: %w", err)
		}
		d.Archive = archive
	}
	if cfg.NotifyEnabled() {
		d.Notifier = services.NewSendGridNotifier(cfg)
	}
	return d, nil
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	log.Printf("server is running on http://localhost:%d (store=%s)", s.cfg.Port, s.cfg.StoreDriver)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the store and Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.users.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
