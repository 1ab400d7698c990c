package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fornihq/forni-backend/api/routes"
	"github.com/fornihq/forni-backend/internal/analytics"
	"github.com/fornihq/forni-backend/internal/auth"
	bakerysvc "github.com/fornihq/forni-backend/internal/bakeries"
	ordersvc "github.com/fornihq/forni-backend/internal/orders"
	productsvc "github.com/fornihq/forni-backend/internal/products"
	recommendationsvc "github.com/fornihq/forni-backend/internal/recommendations"
	reviewsvc "github.com/fornihq/forni-backend/internal/reviews"
	surplusbagsvc "github.com/fornihq/forni-backend/internal/surplusbags"
	"github.com/fornihq/forni-backend/internal/users"
	"github.com/fornihq/forni-backend/pkg/auth/session"
	"github.com/fornihq/forni-backend/pkg/config"
	"github.com/fornihq/forni-backend/pkg/db"
	"github.com/fornihq/forni-backend/pkg/geocode"
	"github.com/fornihq/forni-backend/pkg/logger"
	"github.com/fornihq/forni-backend/pkg/metrics"
	"github.com/fornihq/forni-backend/pkg/migrate"
	"github.com/fornihq/forni-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	svcs, err := buildServices(cfg, logg, dbClient, sessionManager)
	if err != nil {
		logg.Error(context.Background(), "failed to build service graph", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(promRegistry)

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
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, httpMetrics, promRegistry, svcs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, sessionManager *session.Manager) (routes.Services, error) {
	gormDB := dbClient.DB()

	userRepo := users.NewRepository(gormDB)
	bakeryRepo := bakerysvc.NewRepository(gormDB)
	productRepo := productsvc.NewRepository(gormDB)
	bagRepo := surplusbagsvc.NewRepository(gormDB)
	orderRepo := ordersvc.NewRepository(gormDB)
	reviewRepo := reviewsvc.NewRepository(gormDB)
	analyticsRepo := analytics.NewRepository(gormDB)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return routes.Services{}, err
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	userService, err := users.NewService(userRepo)
	if err != nil {
		return routes.Services{}, err
	}

	var geocoder bakerysvc.Geocoder
	if cfg.Geocode.Enabled {
		client, err := geocode.NewClient(
			cfg.Geocode.UserAgent,
			geocode.WithBaseURL(cfg.Geocode.BaseURL),
			geocode.WithTimeout(cfg.Geocode.Timeout),
		)
		if err != nil {
			return routes.Services{}, err
		}
		geocoder = client
	}

	bakeryService, err := bakerysvc.NewService(bakeryRepo, geocoder, logg)
	if err != nil {
		return routes.Services{}, err
	}

	productService, err := productsvc.NewService(productRepo, bakeryRepo)
	if err != nil {
		return routes.Services{}, err
	}

	bagService, err := surplusbagsvc.NewService(bagRepo, bakeryRepo, logg)
	if err != nil {
		return routes.Services{}, err
	}

	orderService, err := ordersvc.NewService(ordersvc.ServiceParams{
		DB:           dbClient,
		Orders:       orderRepo,
		Products:     productRepo,
		Bags:         bagRepo,
		Bakeries:     bakeryRepo,
		FeatureFlags: cfg.FeatureFlags,
	})
	if err != nil {
		return routes.Services{}, err
	}

	reviewService, err := reviewsvc.NewService(dbClient, reviewRepo, bakeryRepo)
	if err != nil {
		return routes.Services{}, err
	}

	recommendationService, err := recommendationsvc.NewService(bagRepo, orderRepo)
	if err != nil {
		return routes.Services{}, err
	}

	analyticsService, err := analytics.NewService(analyticsRepo, bakeryRepo)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:            authService,
		Register:        registerService,
		Users:           userService,
		Bakeries:        bakeryService,
		Products:        productService,
		SurplusBags:     bagService,
		Orders:          orderService,
		Reviews:         reviewService,
		Recommendations: recommendationService,
		Analytics:       analyticsService,
	}, nil
}
