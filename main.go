package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/logging"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/repository/memstore"
	"storefront/internal/repository/mongostore"
)

func main() {
	cmd := &cli.Command{
		Name:   "storefront",
		Usage:  "storefront API server",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "indexes",
				Usage:  "Create MongoDB indexes and exit",
				Action: ensureIndexes,
			},
			{
				Name:  "create-admin",
				Usage: "Create an admin user, or promote an existing one",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "name", Value: "Admin"},
				},
				Action: createAdmin,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// bootstrap loads config, installs the logger and opens the configured store.
func bootstrap(ctx context.Context) (config.Config, *zap.Logger, repository.Store, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return cfg, nil, nil, err
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		return cfg, nil, nil, err
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return cfg, nil, nil, err
	}
	return cfg, logger, store, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repository.Store, error) {
	if cfg.DBDriver == config.DriverMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil
	}

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.DBName)
	logger.Info("mongo database selected", zap.String("db", db.Name()))

	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Warn("index warning", zap.Error(err))
	}
	return mongostore.New(db), nil
}

func serve(ctx context.Context, _ *cli.Command) error {
	cfg, logger, store, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync()

	authService := auth.NewService(store, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	orderService := orders.NewService(store, pricing.ShippingRule{
		FreeThreshold: cfg.FreeShippingThreshold,
		FlatFee:       cfg.ShippingFee,
	}, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.Recovery(cfg.IsProduction()),
		middleware.RequestLogger(logger),
		middleware.CORS(cfg.CORSOrigins),
	)

	handlers.RegisterRoutes(r, handlers.Dependencies{
		Store:                store,
		Auth:                 authService,
		Authenticator:        middleware.NewAuthenticator(authService, cfg.CookieSecure),
		Orders:               orderService,
		RelatedProductsLimit: cfg.RelatedProductsLimit,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-sigCtx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	return store.Close(shutdownCtx)
}

func ensureIndexes(ctx context.Context, _ *cli.Command) error {
	cfg := config.Load()
	if cfg.DBDriver != config.DriverMongo {
		return errors.New("indexes requires DB_DRIVER=mongo")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := logging.New(cfg.Environment)
	if err != nil {
		return err
	}
	defer logger.Sync()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	if err := database.EnsureIndexes(ctx, client.Database(cfg.DBName)); err != nil {
		return err
	}
	logger.Info("indexes ensured", zap.String("db", cfg.DBName))
	return nil
}

func createAdmin(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, store, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer store.Close(context.Background())

	email := strings.ToLower(strings.TrimSpace(cmd.String("email")))
	existing, err := store.Users().GetByEmail(ctx, email)
	switch {
	case err == nil:
		if _, err := store.Users().UpdateRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return err
		}
		logger.Info("promoted existing user to admin", zap.String("email", email))
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	svc := auth.NewService(store, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	user, err := svc.Register(ctx, cmd.String("name"), email, cmd.String("password"), "")
	if err != nil {
		return err
	}
	if _, err := store.Users().UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
		return err
	}
	logger.Info("admin created", zap.String("email", email), zap.String("userId", user.ID.Hex()))
	return nil
}
