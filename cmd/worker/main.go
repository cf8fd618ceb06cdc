package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Domenick1991/barberbooking/config"
	"github.com/Domenick1991/barberbooking/internal/kafka"
	"github.com/Domenick1991/barberbooking/internal/logger"
	"github.com/Domenick1991/barberbooking/internal/repository"
	"github.com/Domenick1991/barberbooking/internal/service/audit"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	l, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		l.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	auditService := audit.NewAuditService(
		repository.NewAuditRepository(pool),
		time.Duration(cfg.Worker.AuditRetentionDays)*24*time.Hour,
		l.Named("audit"),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.RescheduleTopic)
	defer consumer.Close()

	go func() {
		if err := consumer.Consume(ctx, auditService.HandleMessage); err != nil && !errors.Is(err, context.Canceled) {
			l.Error("consumer stopped", zap.Error(err))
			stop()
		}
	}()

	pruneTicker := time.NewTicker(time.Duration(cfg.Worker.PruneIntervalMinutes) * time.Minute)
	defer pruneTicker.Stop()

	l.Info("audit worker started", zap.String("topic", cfg.Kafka.RescheduleTopic))
	for {
		select {
		case <-pruneTicker.C:
			deleted, err := auditService.Prune(ctx, time.Now())
			if err != nil {
				l.Error("prune reschedule attempts", zap.Error(err))
				continue
			}
			if deleted > 0 {
				l.Info("pruned reschedule attempts", zap.Int64("deleted", deleted))
			}
		case <-ctx.Done():
			l.Info("shutting down")
			return
		}
	}
}
