package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	mqcontracts "routinehub/contracts/mq"
	"routinehub/internal/backend"
	"routinehub/internal/config"
	"routinehub/internal/handler"
	"routinehub/internal/httpserver"
	"routinehub/internal/mqhandler"
	"routinehub/internal/roster"
	"routinehub/internal/roulette"
	"routinehub/internal/store"
	"routinehub/internal/streak"
	"routinehub/internal/syncer"
	"routinehub/pkg/logger"
	"routinehub/pkg/mq"
	"routinehub/pkg/redis"
	"routinehub/pkg/util"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting routinehub...",
		zap.String("backend_url", cfg.Backend.BaseURL),
		zap.String("redis_addr", cfg.Redis.Addr),
		zap.String("mq_url", cfg.MQ.URL),
	)

	// Redis
	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	// 抽奖限一天一次；48h 后标记自然过期
	spinGuard := util.NewDeduper(rdb, 48*time.Hour, log)
	// 里程碑 "already shown" 标记永不过期
	milestoneGuard := util.NewDeduper(rdb, 0, log)

	// MQ Publisher
	log.Info("Initializing MQ publisher...")
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()
	log.Info("MQ publisher initialized successfully")

	// Backend client + engine
	api := backend.NewClient(cfg.Backend)
	completionStore := store.NewCompletionStore(log)
	controller := syncer.NewController(completionStore, api, publisher, log)
	rosterCache := roster.NewCache(rdb, api, time.Minute, log)
	spinService := roulette.NewService(completionStore, api, spinGuard, publisher, log)
	streakAggregator := streak.NewAggregator(api, milestoneGuard, publisher, log)

	// MQ Consumer for routine.roster_updated
	log.Info("Initializing MQ consumer for routine.roster_updated...",
		zap.String("queue", "routine.roster_updated.q"),
		zap.String("routing_key", mqcontracts.RoutingKeyRosterUpdated),
	)
	rosterConsumer, err := mq.NewConsumer(cfg.MQ.URL, "routine.roster_updated.q", mqcontracts.RoutingKeyRosterUpdated, log)
	if err != nil {
		log.Fatal("Failed to init roster consumer", zap.Error(err))
	}
	defer rosterConsumer.Close()

	rosterHandler := mqhandler.NewRosterUpdatedHandler(rosterCache, log)
	rosterConsumer.SetHandler(rosterHandler.Handle)

	go func() {
		log.Info("Starting routine.roster_updated consumer...")
		if err := rosterConsumer.StartConsuming(); err != nil {
			log.Fatal("Roster consumer failed", zap.Error(err))
		}
	}()
	log.Info("routine.roster_updated consumer started successfully")

	// HTTP Server
	port := cfg.Server.Port
	if port == "" {
		port = "8084"
	}
	log.Info("Initializing HTTP server...", zap.String("port", port))

	routineHandler := handler.NewRoutineHandler(api, completionStore, controller, rosterCache, spinService, log)
	streakHandler := handler.NewStreakHandler(streakAggregator, log)
	router := httpserver.NewRouter(routineHandler, streakHandler, log, rdb, publisher, cfg.JWT.Secret)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting on :" + port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("routinehub is fully initialized and running",
		zap.String("http_port", port),
		zap.String("mq_queue_roster", "routine.roster_updated.q"),
	)

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down routinehub gracefully...")

	log.Info("Stopping MQ consumer...")
	rosterConsumer.Stop()

	log.Info("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("Closing Redis connection...")
	rdb.Close()

	log.Info("Closing MQ publisher...")
	publisher.Close()

	log.Info("routinehub shutdown complete")
}
