package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/talentmatch/messaging-service/internal/bridge"
	"github.com/talentmatch/messaging-service/internal/client/centrifugo"
	"github.com/talentmatch/messaging-service/internal/config"
	"github.com/talentmatch/messaging-service/internal/pkg/backoff"
	"github.com/talentmatch/messaging-service/internal/repository/postgres"
)

func main() {
	cfg := config.MustLoad()
	logger := logger_lib.New(cfg.Logger.Host, cfg.Logger.Port, cfg.Service.Name, cfg.Platform.Env)

	dbRepo := postgres.New(cfg)
	defer dbRepo.Close()

	feed, err := postgres.NewFeed(cfg, dbRepo, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to start change feed: %v", err))
		return
	}
	defer feed.Close()

	centrifugeClient := centrifugo.New(cfg)
	defer centrifugeClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = context.WithValue(ctx, config.KeyLogger, logger)

	if err := bridge.New(feed, centrifugeClient, backoff.DefaultConfig()).Run(ctx); err != nil {
		logger.Error(fmt.Sprintf("realtime bridge stopped: %v", err))
	}
}
