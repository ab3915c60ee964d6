// README: API server entrypoint; wires config, Postgres, Redis, and the
// module services behind the HTTP router.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"aieats/internal/auth"
	"aieats/internal/config"
	httpapi "aieats/internal/http"
	"aieats/internal/http/handlers"
	"aieats/internal/infra"
	"aieats/internal/maps"
	"aieats/internal/modules/chat"
	"aieats/internal/modules/complaint"
	"aieats/internal/modules/delivery"
	"aieats/internal/modules/menu"
	"aieats/internal/modules/order"
	"aieats/internal/modules/reputation"
	"aieats/internal/modules/user"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	db, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	rdb := infra.NewRedis(cfg.Redis.Addr)
	defer rdb.Close()

	tokens := auth.NewTokens(cfg.Auth.JWTSecret)

	users := user.NewService(user.NewStore(db))
	dishes := menu.NewService(menu.NewStore(db), users)
	orders := order.NewService(order.NewStore(db), users, dishes)

	var estimator delivery.Estimator
	if cfg.Maps.APIKey != "" {
		ds, err := maps.NewDistanceService(cfg.Maps.APIKey)
		if err != nil {
			logger.Fatal("init maps client", zap.Error(err))
		}
		estimator = ds
	} else {
		logger.Info("maps api key not set, delivery estimates disabled")
	}
	deliveries := delivery.NewService(delivery.NewStore(db), users, orders, estimator)

	complaints := complaint.NewService(complaint.NewStore(db), users, complaint.NewRedisAlertCache(rdb))
	reviews := reputation.NewService(users, complaints)

	var generator chat.Generator
	if cfg.Chat.GeminiKey != "" {
		g, err := chat.NewGeminiGenerator(ctx, cfg.Chat.GeminiKey)
		if err != nil {
			logger.Fatal("init gemini client", zap.Error(err))
		}
		generator = g
	} else {
		logger.Info("gemini api key not set, chat falls back to the knowledge base")
	}
	assistant := chat.NewService(chat.NewStore(db), users, generator, chat.NewHealth(cfg.Chat.Enabled), chat.NewRedisCache(rdb))

	router := httpapi.NewRouter(logger, tokens, httpapi.Services{
		Auth:       handlers.NewAuthHandler(users, tokens),
		Users:      handlers.NewUserHandler(users),
		Staff:      handlers.NewStaffHandler(users),
		Menu:       handlers.NewMenuHandler(dishes),
		Orders:     handlers.NewOrderHandler(orders),
		Deliveries: handlers.NewDeliveryHandler(deliveries),
		Complaints: handlers.NewComplaintHandler(complaints, reviews),
		Chat:       handlers.NewChatHandler(assistant),
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
