package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yutosugimura/saltbreeze-backend/api/routes"
	"github.com/yutosugimura/saltbreeze-backend/internal/catalog"
	checkoutsvc "github.com/yutosugimura/saltbreeze-backend/internal/checkout"
	fulfillmentsvc "github.com/yutosugimura/saltbreeze-backend/internal/fulfillment"
	"github.com/yutosugimura/saltbreeze-backend/internal/inventory"
	"github.com/yutosugimura/saltbreeze-backend/internal/notifications"
	orderssvc "github.com/yutosugimura/saltbreeze-backend/internal/orders"
	"github.com/yutosugimura/saltbreeze-backend/internal/reconcile"
	"github.com/yutosugimura/saltbreeze-backend/pkg/config"
	"github.com/yutosugimura/saltbreeze-backend/pkg/db"
	"github.com/yutosugimura/saltbreeze-backend/pkg/gateway"
	"github.com/yutosugimura/saltbreeze-backend/pkg/logger"
	"github.com/yutosugimura/saltbreeze-backend/pkg/metrics"
	"github.com/yutosugimura/saltbreeze-backend/pkg/migrate"
	"github.com/yutosugimura/saltbreeze-backend/pkg/pubsub"
	"github.com/yutosugimura/saltbreeze-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gatewayClient, err := gateway.NewClient(context.Background(), cfg.Gateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gateway client", err)
		os.Exit(1)
	}

	var dispatcher notifications.Dispatcher = notifications.NoopDispatcher{}
	if cfg.PubSub.ProjectID != "" {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()

		dispatcher, err = notifications.NewPubSubDispatcher(pubsubClient.NotificationPublisher())
		if err != nil {
			logg.Error(context.Background(), "failed to create notification dispatcher", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "no gcp project configured, notifications disabled")
	}

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	ordersRepo := orderssvc.NewRepository(dbClient.DB())
	fulfillmentRepo := fulfillmentsvc.NewRepository(dbClient.DB())

	inventoryService, err := inventory.NewService(catalogRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	fulfillmentService, err := fulfillmentsvc.NewService(fulfillmentRepo, dispatcher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create fulfillment service", err)
		os.Exit(1)
	}

	ordersService, err := orderssvc.NewService(ordersRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		OrdersRepo:  ordersRepo,
		CatalogRepo: catalogRepo,
		Inventory:   inventoryService,
		Fulfillment: fulfillmentService,
		Dispatcher:  dispatcher,
		Gateway:     gatewayClient,
		Shipping:    cfg.Shipping,
		Metrics:     engineMetrics,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	reconcileService, err := reconcile.NewService(reconcile.ServiceParams{
		OrdersRepo:  ordersRepo,
		Inventory:   inventoryService,
		Fulfillment: fulfillmentService,
		Dispatcher:  dispatcher,
		Metrics:     engineMetrics,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Gateway:     gatewayClient,
			Checkout:    checkoutService,
			Orders:      ordersService,
			Fulfillment: fulfillmentService,
			Reconcile:   reconcileService,
			Metrics:     engineMetrics,
			Registry:    registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
