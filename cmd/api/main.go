package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/marketbay/api/internal/fixtures"
	"github.com/marketbay/api/internal/handlers"
	"github.com/marketbay/api/internal/payments"
	"github.com/marketbay/api/internal/platform/auth"
	"github.com/marketbay/api/internal/platform/config"
	pfirestore "github.com/marketbay/api/internal/platform/firestore"
	"github.com/marketbay/api/internal/platform/idempotency"
	"github.com/marketbay/api/internal/platform/jobs"
	"github.com/marketbay/api/internal/platform/kvstore"
	"github.com/marketbay/api/internal/platform/observability"
	"github.com/marketbay/api/internal/platform/secrets"
	fsrepo "github.com/marketbay/api/internal/repositories/firestore"
	"github.com/marketbay/api/internal/services"
)

const (
	shutdownTimeout = 10 * time.Second
	closeTimeout    = 5 * time.Second
	catalogSeed     = 20240601
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("api terminated", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	ctx := observability.WithLogger(context.Background(), logger)

	fetcher, err := secrets.NewFetcher(ctx,
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithDefaultProject(os.Getenv("GOOGLE_CLOUD_PROJECT")),
	)
	if err != nil {
		return fmt.Errorf("initialise secret fetcher: %w", err)
	}
	defer fetcher.Close()

	cfg, err := loadConfig(ctx, fetcher)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Error("required secrets unresolved", zap.Strings("secrets", missing.Names()))
		}
		return fmt.Errorf("load configuration: %w", err)
	}

	backend, err := kvstore.NewFileBackend(cfg.Store.Directory)
	if err != nil {
		return fmt.Errorf("initialise state store: %w", err)
	}
	store := kvstore.New(backend, logger.Named("kvstore"))

	provider := pfirestore.NewProvider(cfg.Firestore)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := provider.Close(closeCtx); err != nil {
			logger.Warn("firestore close failed", zap.Error(err))
		}
	}()

	productRepo, err := fsrepo.NewProductRepository(provider)
	if err != nil {
		return fmt.Errorf("initialise product repository: %w", err)
	}

	generator := fixtures.NewProductGenerator(catalogSeed)

	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{
		Primary:       productRepo,
		Generate:      generator.Products,
		SeedCount:     cfg.Catalog.SeedCount,
		RetryAttempts: cfg.Catalog.RetryAttempts,
		RetryDelay:    cfg.Catalog.RetryDelay,
		Clock:         time.Now,
		Logger:        observability.ServiceLogger(logger.Named("catalog")),
	})
	if err != nil {
		return fmt.Errorf("initialise catalog service: %w", err)
	}
	if err := catalog.Initialize(ctx); err != nil {
		return fmt.Errorf("initialise catalog: %w", err)
	}

	carts, err := services.NewCartService(services.CartServiceDeps{
		Store:   store,
		Catalog: catalog,
		Logger:  observability.ServiceLogger(logger.Named("cart")),
	})
	if err != nil {
		return fmt.Errorf("initialise cart service: %w", err)
	}

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Store:  store,
		Seed:   fixtures.SeedOrders,
		Clock:  time.Now,
		Logger: observability.ServiceLogger(logger.Named("orders")),
	})
	if err != nil {
		return fmt.Errorf("initialise order service: %w", err)
	}

	gateway, err := newGateway(cfg.Payments, logger)
	if err != nil {
		return fmt.Errorf("initialise payment gateway: %w", err)
	}

	var publisher services.OrderEventPublisher
	if cfg.Events.Enabled {
		client, err := pubsub.NewClient(ctx, cfg.Events.ProjectID)
		if err != nil {
			return fmt.Errorf("initialise pubsub client: %w", err)
		}
		defer client.Close()

		topic := client.Topic(cfg.Events.OrderTopic)
		defer topic.Stop()

		publisher, err = jobs.NewPubSubOrderPublisher(topic)
		if err != nil {
			return fmt.Errorf("initialise order publisher: %w", err)
		}
	}

	checkout, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Cart:      carts,
		Orders:    orders,
		Gateway:   gateway,
		Publisher: publisher,
		Clock:     time.Now,
		Logger:    observability.ServiceLogger(logger.Named("checkout")),
	})
	if err != nil {
		return fmt.Errorf("initialise checkout service: %w", err)
	}

	issuer, err := auth.NewTokenIssuer([]byte(cfg.Session.SigningSecret),
		auth.WithTokenTTL(cfg.Session.TTL),
		auth.WithTokenIssuerName(cfg.Session.Issuer),
	)
	if err != nil {
		return fmt.Errorf("initialise token issuer: %w", err)
	}

	users, err := services.NewUserService(services.UserServiceDeps{
		Store:       store,
		Issuer:      issuer,
		IDGenerator: prefixedIDGenerator("usr_"),
		Logger:      observability.ServiceLogger(logger.Named("users")),
	})
	if err != nil {
		return fmt.Errorf("initialise user service: %w", err)
	}

	idemStore, err := idempotency.NewKVStore(store)
	if err != nil {
		return fmt.Errorf("initialise idempotency store: %w", err)
	}
	checkoutHandlers := handlers.NewCheckoutHandlers(nil, checkout)
	guardedCheckout := func(r chi.Router) {
		// The session check must run before the idempotency guard so
		// replay records are scoped to the authenticated user.
		r.Use(auth.RequireSession(issuer))
		r.Use(idempotency.Middleware(idemStore, idempotency.WithLogger(logger.Named("idempotency"))))
		checkoutHandlers.Routes(r)
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger.Named("http")),
			observability.TraceMiddleware(cfg.Firestore.ProjectID),
			observability.RecoveryMiddleware(logger.Named("http")),
			observability.RequestLoggerMiddleware(cfg.Firestore.ProjectID),
		),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(
			handlers.WithReadinessCheck(readinessCheck(provider, catalog)),
		)),
		handlers.WithProductRoutes(handlers.NewProductHandlers(catalog).Routes),
		handlers.WithCartRoutes(handlers.NewCartHandlers(carts).Routes),
		handlers.WithOrderRoutes(handlers.NewOrderHandlers(issuer, orders).Routes),
		handlers.WithCheckoutRoutes(guardedCheckout),
		handlers.WithAuthRoutes(handlers.NewAuthHandlers(users).Routes),
		handlers.WithAdminRoutes(handlers.NewAdminCatalogHandlers(issuer, catalog).Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening",
			zap.String("addr", server.Addr),
			zap.String("payments_provider", cfg.Payments.Provider),
			zap.Bool("catalog_degraded", catalog.Degraded()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("api stopped")
	return nil
}

func loadConfig(ctx context.Context, fetcher *secrets.Fetcher) (config.Config, error) {
	required := []string{"Session.SigningSecret"}
	if strings.EqualFold(os.Getenv("API_PAYMENTS_PROVIDER"), "stripe") {
		required = append(required, "Payments.StripeAPIKey")
	}
	return config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
		config.WithRequiredSecrets(required...),
	)
}

func newGateway(cfg config.PaymentsConfig, logger *zap.Logger) (payments.Gateway, error) {
	switch cfg.Provider {
	case "stripe":
		return payments.NewStripeGateway(payments.StripeGatewayDeps{
			APIKey: cfg.StripeAPIKey,
			Logger: observability.ServiceLogger(logger.Named("stripe")),
		})
	default:
		return payments.NewMockGateway(payments.MockGatewayDeps{
			Delay:      cfg.MockDelay,
			FailurePct: cfg.MockFailurePct,
			Roll:       func() int { return rand.IntN(100) },
			Logger:     observability.ServiceLogger(logger.Named("payments")),
		}), nil
	}
}

// readinessCheck reports ready while the primary store is reachable. A
// degraded catalog keeps serving generated products, so it does not fail
// the probe on its own.
func readinessCheck(provider *pfirestore.Provider, catalog services.CatalogService) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if _, err := provider.Client(ctx); err != nil {
			if catalog.Degraded() {
				return nil
			}
			return fmt.Errorf("firestore unavailable: %w", err)
		}
		return nil
	}
}

func prefixedIDGenerator(prefix string) func() string {
	return func() string {
		return prefix + strings.ToLower(ulid.Make().String())
	}
}
