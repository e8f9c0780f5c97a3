package main

import (
	"context"
	"errors"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rookgm/storefront/config"
	"github.com/rookgm/storefront/internal/auth"
	handler "github.com/rookgm/storefront/internal/handler/http"
	"github.com/rookgm/storefront/internal/logger"
	"github.com/rookgm/storefront/internal/middleware"
	"github.com/rookgm/storefront/internal/models"
	"github.com/rookgm/storefront/internal/notify"
	"github.com/rookgm/storefront/internal/payment"
	"github.com/rookgm/storefront/internal/repository"
	"github.com/rookgm/storefront/internal/repository/postgres"
	"github.com/rookgm/storefront/internal/service"
	"github.com/rookgm/storefront/internal/worker"
	"go.uber.org/zap"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

func main() {

	// create new config
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// initialize logger
	logger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	// create context cancelled on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// initialize database
	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("Error initializing database", zap.Error(err))
	}
	defer db.Close()

	// migrate database
	if err := db.Migrate(); err != nil {
		logger.Fatal("Error migrating database", zap.Error(err))
	}

	if cfg.AuthTokenKey == "" {
		logger.Fatal("AUTH_TOKEN_KEY is not set")
	}
	token := auth.NewAuthToken([]byte(cfg.AuthTokenKey))

	// payment processor
	stripeClient := payment.NewClient(payment.Config{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		Currency:      cfg.Currency,
		BackendURL:    cfg.StripeBackendURL,
	}, logger)

	// notifications
	sender := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.EmailHost,
		Port:     cfg.EmailPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPassword,
		From:     cfg.EmailFrom,
	}, logger)
	mailer, err := notify.NewMailer(sender, cfg.Currency)
	if err != nil {
		logger.Fatal("Error initializing mailer", zap.Error(err))
	}

	// dependency injection
	// user
	userRepo := repository.NewUserRepository(db)
	userService := service.NewUserService(userRepo)
	userHandler := handler.NewUserHandler(userService, token, logger)

	// auth
	authService := service.NewAuthService(userRepo, token)
	authHandler := handler.NewAuthHandler(authService, logger)

	// account
	accountService := service.NewAccountService(userRepo)
	accountHandler := handler.NewAccountHandler(accountService, logger)

	// order
	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderService := service.NewOrderService(orderRepo, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	adminHandler := handler.NewAdminHandler(orderService, logger)

	// catalog and cart
	catalogService := service.NewCatalogService(productRepo)
	catalogHandler := handler.NewCatalogHandler(catalogService, logger)
	cartRepo := repository.NewCartRepository(db)
	cartService := service.NewCartService(cartRepo, productRepo)
	cartHandler := handler.NewCartHandler(cartService, logger)

	// checkout and reconciliation
	checkoutService := service.NewCheckoutService(productRepo, stripeClient, orderRepo, cfg.BaseURL, logger)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, logger)
	reconcileService := service.NewReconcileService(orderRepo, productRepo, stripeClient, mailer, logger)
	webhookHandler := handler.NewWebhookHandler(stripeClient, reconcileService, logger)

	// stale PENDING orders
	pendingService := service.NewPendingService(orderRepo, stripeClient, reconcileService, cfg.PendingStaleAfter, logger)
	processor := worker.NewOrderProcessor(pendingService, cfg.PendingSweepInterval, logger)
	go processor.ProcessOrders(ctx)

	limiter := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst)
	go limiter.Cleanup(ctx)

	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	if cfg.TrustProxy {
		router.Use(chimiddleware.RealIP)
	}
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logging(logger))

	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// processor retries until it gets 2xx, so webhook is not rate limited
	router.Post("/api/stripe/webhook", webhookHandler.HandleEvent())

	router.Group(func(group chi.Router) {
		group.Use(limiter.Handler)
		group.With(middleware.OptionalAuth(token)).Post("/api/stripe/checkout", checkoutHandler.CreateCheckout())
		group.Post("/api/user/register", userHandler.RegisterUser())
		group.Post("/api/user/login", authHandler.LoginUser())
		group.Get("/api/products", catalogHandler.ListProducts())
		group.Get("/api/products/{identifier}", catalogHandler.GetProduct())
	})

	// routes that require authentication
	router.Group(func(group chi.Router) {
		group.Use(middleware.Auth(token))
		group.Get("/api/orders", orderHandler.ListUserOrders())
		group.Get("/api/orders/{id}", orderHandler.GetUserOrder())

		group.Get("/api/cart", cartHandler.GetCart())
		group.Post("/api/cart/items", cartHandler.AddItem())
		group.Put("/api/cart/items/{identifier}", cartHandler.UpdateItem())
		group.Delete("/api/cart/items/{identifier}", cartHandler.RemoveItem())
		group.Post("/api/cart/merge", cartHandler.MergeGuestCart())

		group.Get("/api/account/profile", accountHandler.GetProfile())
		group.Patch("/api/account/profile", accountHandler.UpdateProfile())
		group.Post("/api/account/password", accountHandler.ChangePassword())

		group.Route("/api/admin/orders", func(admin chi.Router) {
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			admin.Get("/", adminHandler.ListOrders())
			admin.Get("/stats", adminHandler.OrderStats())
			admin.Patch("/{id}/status", adminHandler.UpdateOrderStatus())
		})
	})

	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", zap.Error(err))
		}
	}()

	logger.Info("Running server", zap.String("addr", cfg.ServerAddr))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Error starting server", zap.Error(err))
	}

	logger.Info("Server stopped")
}
