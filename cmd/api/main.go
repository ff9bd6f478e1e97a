package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/mail"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withPool(cmd.Context(), func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) error {
					return database.Migrate(ctx, pool, logger)
				})
			},
		},
		newSeedCommand(),
	)

	return root
}

// withPool loads configuration, opens the database and hands both to fn.
func withPool(ctx context.Context, fn func(context.Context, *config.Config, *pgxpool.Pool, zerolog.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool, logger)
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withPool(ctx, func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) error {
		logger.Info().Msg("starting storefront API server")

		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		mux, err := buildHandler(ctx, cfg, pool, logger)
		if err != nil {
			return err
		}

		server := &http.Server{
			Addr:         cfg.Server.Address(),
			Handler:      mux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			logger.Info().Str("address", server.Addr).Msg("HTTP server started")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			logger.Info().Msg("shutdown signal received, starting graceful shutdown")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("failed to shutdown server gracefully")
				if closeErr := server.Close(); closeErr != nil {
					logger.Error().Err(closeErr).Msg("failed to close server")
				}
				return fmt.Errorf("server shutdown failed: %w", err)
			}

			logger.Info().Msg("server shutdown completed")
			return nil
		})

		return g.Wait()
	})
}

// buildHandler wires repositories, services and handlers into the router.
func buildHandler(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (http.Handler, error) {
	userRepo := repository.NewUserRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	categoryRepo := repository.NewCategoryRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	var mailer mail.Mailer
	if cfg.Mail.SendGridAPIKey != "" {
		mailer = mail.NewSendGridMailer(cfg.Mail.SendGridAPIKey, cfg.Mail.FromEmail, cfg.Mail.FromName, logger)
	} else {
		logger.Info().Msg("SENDGRID_API_KEY not set, outgoing mail is logged only")
		mailer = mail.NewLogMailer(logger)
	}

	store, err := newStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.RefreshWindow)

	card := payment.NewCardGateway(cfg.Payment.GatewayURL, cfg.Payment.SecretKey, cfg.Payment.Currency,
		&http.Client{Timeout: cfg.Payment.Timeout}, logger)
	wallets := map[model.PaymentMethod]service.WalletCharger{
		model.PaymentJazzCash:  payment.NewJazzCash(cfg.Payment.WalletLatency),
		model.PaymentEasypaisa: payment.NewEasypaisa(cfg.Payment.WalletLatency),
	}

	authService := service.NewAuthService(userRepo, tokens, mailer, cfg.Auth, cfg.Mail.FrontendURL, logger)
	userService := service.NewUserService(userRepo, productRepo, logger)
	productService := service.NewProductService(productRepo, orderRepo, logger)
	categoryService := service.NewCategoryService(categoryRepo, productRepo, logger)
	cartService := service.NewCartService(userRepo, productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, userRepo, mailer, cfg.Mail.FrontendURL, logger)
	paymentService := service.NewPaymentService(card, wallets, cfg.Payment.WalletLatency, logger)

	cookie := middleware.SessionCookie{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}

	handlers := router.Handlers{
		Health:   handler.NewHealthHandler(pool, logger),
		Auth:     handler.NewAuthHandler(authService, userService, cookie, logger),
		User:     handler.NewUserHandler(userService, logger),
		Product:  handler.NewProductHandler(productService, logger),
		Category: handler.NewCategoryHandler(categoryService, logger),
		Cart:     handler.NewCartHandler(cartService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Upload:   handler.NewUploadHandler(store, cfg.Storage.MaxFileSize, cfg.Storage.MaxFiles, logger),
		Payment:  handler.NewPaymentHandler(paymentService, cfg.Payment.Currency, logger),
	}

	return router.New(handlers, middleware.NewAuth(authService, cookie, logger), router.Options{
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		RateLimitRequests: cfg.RateLimit.Requests,
		RateLimitWindow:   cfg.RateLimit.Window,

		LoginLimit: router.RouteLimit{
			Requests: cfg.RateLimit.LoginRequests, Window: cfg.RateLimit.LoginWindow,
		},
		RegisterLimit: router.RouteLimit{
			Requests: cfg.RateLimit.RegisterRequests, Window: cfg.RateLimit.RegisterWindow,
		},
		ForgotPasswordLimit: router.RouteLimit{
			Requests: cfg.RateLimit.ForgotPasswordRequests, Window: cfg.RateLimit.ForgotPasswordWindow,
		},
		UploadDir:    cfg.Storage.UploadDir,
		UploadPrefix: cfg.Storage.PublicPrefix,
	}, logger), nil
}

// newStore returns the upload store: local disk, fronted by S3 when enabled.
func newStore(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (storage.Store, error) {
	disk, err := storage.NewDiskStore(cfg.UploadDir, cfg.PublicPrefix, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize upload directory: %w", err)
	}

	if !cfg.S3.Enabled {
		logger.Info().Str("dir", cfg.UploadDir).Msg("using local file system for uploads (S3 disabled)")
		return disk, nil
	}

	remote, err := storage.NewS3Store(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialise S3 store, falling back to local file system only")
		return disk, nil
	}
	return storage.NewFallbackStore(remote, disk, logger), nil
}
