package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"housemarket/docs"
	"housemarket/internal/auth"
	"housemarket/internal/cache"
	"housemarket/internal/config"
	"housemarket/internal/events"
	"housemarket/internal/handler"
	"housemarket/internal/logger"
	"housemarket/internal/metrics"
	"housemarket/internal/repository"
	"housemarket/internal/router"
	"housemarket/internal/service"
	"housemarket/internal/storage"
)

// @title House Market API
// @version 1.0
// @description Property listing marketplace: accounts, listings with images, filtering and public profiles.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	logg, err := logger.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}

	if err := run(cfg, logg); err != nil {
		logg.Error("server exited", zap.Error(err))
		_ = logg.Sync()
		os.Exit(1)
	}
	_ = logg.Sync()
}

// run wires every dependency and serves until a signal arrives or the
// listener fails.
func run(cfg *config.Config, logg *zap.Logger) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	ctx := context.Background()

	store, err := repository.Open(ctx, cfg, logg)
	if err != nil {
		return fmt.Errorf("store init: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logg.Warn("store close", zap.Error(err))
		}
	}()

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, logg.Named("cache"))
	if err := cacheClient.Ping(ctx); err != nil {
		logg.Warn("redis unavailable, sessions cannot be refreshed or revoked", zap.Error(err))
	}
	defer cacheClient.Close()

	images, err := storage.New(cfg, logg)
	if err != nil {
		return fmt.Errorf("image store init: %w", err)
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATSURL, "housemarket", logg)
		if err != nil {
			logg.Warn("nats unavailable, listing events disabled", zap.Error(err))
		} else {
			publisher = natsPublisher
		}
	}
	defer publisher.Close()

	metricsManager := metrics.NewManager()

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	authService := service.NewAuthService(store.Users, jwtService, tokenStore, logg)
	listingService := service.NewListingService(store.Listings, store.Users, images, publisher, metricsManager, service.ListingOptions{
		DefaultPageSize:       cfg.DefaultPageSize,
		MaxPageSize:           cfg.MaxPageSize,
		EnforceImageCapOnEdit: cfg.EnforceImageCapOnEdit,
	}, logg)
	userService := service.NewUserService(store.Users, store.Listings, images, logg)

	deps := router.Deps{
		Config:         cfg,
		Log:            logg,
		Metrics:        metricsManager,
		JWT:            jwtService,
		Tokens:         tokenStore,
		AuthHandler:    handler.NewAuthHandler(authService),
		ListingHandler: handler.NewListingHandler(listingService),
		UserHandler:    handler.NewUserHandler(userService),
		UploadDir:      storage.LocalDir(images),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, deps)

	addr := ":" + cfg.ServerPort
	logg.Info("server starting",
		zap.String("addr", addr),
		zap.String("store", cfg.StoreDriver),
		zap.String("swagger", cfg.PublicBaseURL+"/swagger/index.html"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return serve(e, addr, quit, logg)
}

// serve runs e on addr until quit fires or the listener fails, then shuts
// it down. A listener failure is returned.
func serve(e *echo.Echo, addr string, quit <-chan os.Signal, logg *zap.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var startErr error
	select {
	case <-quit:
		logg.Info("shutting down")
	case startErr = <-serverErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logg.Error("server shutdown", zap.Error(err))
	}
	if startErr != nil {
		return fmt.Errorf("server start: %w", startErr)
	}
	return nil
}
