package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/navarrete-shop/backend/internal/bulkorder"
	"github.com/navarrete-shop/backend/internal/cart"
	"github.com/navarrete-shop/backend/internal/config"
	"github.com/navarrete-shop/backend/internal/events"
	"github.com/navarrete-shop/backend/internal/httpx"
	"github.com/navarrete-shop/backend/internal/order"
	"github.com/navarrete-shop/backend/internal/payment"
	"github.com/navarrete-shop/backend/internal/product"
	"github.com/navarrete-shop/backend/internal/storage"
	"github.com/navarrete-shop/backend/internal/user"
)

func main() {
	cfg := config.Load()

	var log *zap.Logger
	var err error
	if cfg.Env == "production" {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := storage.Migrate(cfg.PostgresDSN); err != nil {
		log.Fatal("migrations failed", zap.Error(err))
	}
	pool, err := storage.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pool.Close()

	var cartCache cart.Cache
	if cfg.RedisAddr != "" {
		cartCache = cart.NewRedisCache(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		log.Info("cart cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	var publisher order.Publisher
	if cfg.RabbitMQURL != "" {
		p, err := events.NewPublisher(cfg.RabbitMQURL, cfg.EventExchange)
		if err != nil {
			log.Fatal("rabbitmq connection failed", zap.Error(err))
		}
		defer p.Close()
		publisher = p
		log.Info("event publishing enabled", zap.String("exchange", cfg.EventExchange))
	}

	gateway := payment.NewClient(cfg.StripeKey)
	if cfg.StripeBaseURL != "" {
		gateway.BaseURL = cfg.StripeBaseURL
	}

	productRepo := product.NewPGRepo(pool)
	userRepo := user.NewPGRepo(pool)
	cartRepo := cart.NewPGRepo(pool)
	orderRepo := order.NewPGRepo(pool)
	bulkRepo := bulkorder.NewPGRepo(pool)

	a := &app{
		log:        log,
		secret:     []byte(cfg.JWTSecret),
		policy:     httpx.DefaultPolicy(),
		products:   productRepo,
		users:      userRepo,
		bulkOrders: bulkRepo,
		orders:     orderRepo,
		userSvc:    user.NewService(userRepo, gateway, []byte(cfg.JWTSecret), log),
		cartSvc:    cart.NewService(cartRepo, cartCache, log),
		orderSvc:   order.NewService(orderRepo, productRepo, userRepo, gateway, publisher, log),
		gateway:    gateway,
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: a.router()}
	go func() {
		log.Info("api listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown incomplete", zap.Error(err))
	}
}
