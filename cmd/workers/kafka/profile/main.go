package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	kafkalib "github.com/s21platform/kafka-lib"
	logger_lib "github.com/s21platform/logger-lib"
	"github.com/s21platform/metrics-lib/pkg"

	"github.com/talentmatch/messaging-service/internal/config"
	"github.com/talentmatch/messaging-service/internal/databus/profile"
	"github.com/talentmatch/messaging-service/internal/repository/postgres"
)

const profileConsumerGroupID = "messaging-profile-updater"

func main() {
	cfg := config.MustLoad()
	logger := logger_lib.New(cfg.Logger.Host, cfg.Logger.Port, cfg.Service.Name, cfg.Platform.Env)

	dbRepo := postgres.New(cfg)
	defer dbRepo.Close()

	metrics, err := pkg.NewMetrics(cfg.Metrics.Host, cfg.Metrics.Port, cfg.Service.Name, cfg.Platform.Env)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to connect graphite: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = context.WithValue(ctx, config.KeyMetrics, metrics)
	ctx = context.WithValue(ctx, config.KeyLogger, logger)

	consumerConfig := kafkalib.DefaultConsumerConfig(
		cfg.Kafka.Host,
		cfg.Kafka.Port,
		cfg.Kafka.ProfileTopic,
		profileConsumerGroupID,
	)
	consumer, err := kafkalib.NewConsumer(consumerConfig, metrics)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to create consumer: %v", err))
		return
	}

	profileHandler := profile.New(dbRepo)
	consumer.RegisterHandler(ctx, profileHandler.Handler)
	logger.Info(fmt.Sprintf("profile worker consuming %s as %s", cfg.Kafka.ProfileTopic, profileConsumerGroupID))

	<-ctx.Done()
	logger.Info(fmt.Sprintf("profile worker stopped: %v", context.Cause(ctx)))
}
