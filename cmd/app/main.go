package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Domenick1991/barberbooking/config"
	"github.com/Domenick1991/barberbooking/internal/bootstrap"
	"github.com/Domenick1991/barberbooking/internal/cache"
	"github.com/Domenick1991/barberbooking/internal/kafka"
	"github.com/Domenick1991/barberbooking/internal/logger"
	"github.com/Domenick1991/barberbooking/internal/metrics"
	"github.com/Domenick1991/barberbooking/internal/repository"
	"github.com/Domenick1991/barberbooking/internal/service/availability"
	"github.com/Domenick1991/barberbooking/internal/service/reschedule"
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

	loc, err := cfg.Scheduling.Location()
	if err != nil {
		l.Fatal("load shop time zone", zap.Error(err))
	}
	opens, closes, err := cfg.Scheduling.DefaultHours()
	if err != nil {
		l.Fatal("parse default working hours", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		l.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Scheduling.SlotCacheTTL())
	defer func() { _ = redisCache.Close() }()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer func() { _ = producer.Close() }()

	m := metrics.New()

	bookingRepo := repository.NewBookingRepository(pool, loc)
	resourceRepo := repository.NewResourceRepository(pool)
	serviceRepo := repository.NewServiceRepository(pool)

	source := availability.NewCachedSource(
		repository.NewAvailabilitySource(pool, repository.AvailabilityOptions{
			Location:        loc,
			Step:            cfg.Scheduling.SlotStep(),
			DefaultOpensAt:  opens,
			DefaultClosesAt: closes,
		}),
		redisCache,
		loc,
		l.Named("slot_cache"),
	)
	finder := availability.NewFinder(
		availability.NewCatalog(source, loc),
		resourceRepo,
		cfg.Scheduling.Horizon(),
		availability.WithFallback(cfg.Scheduling.SearchFallback),
		availability.WithLogger(l.Named("finder")),
		availability.WithMetrics(m),
	)
	slotService := availability.NewSlotService(serviceRepo, finder)

	rescheduleService := reschedule.NewRescheduleService(
		bookingRepo,
		reschedule.NewPlanner(loc, cfg.Scheduling.OwnSlotStep()),
		reschedule.WithDayLocker(redisCache, cfg.Scheduling.DayLockTTL()),
		reschedule.WithSlotInvalidator(redisCache),
		reschedule.WithEvents(producer, cfg.Kafka.RescheduleTopic),
		reschedule.WithLogger(l.Named("reschedule")),
		reschedule.WithMetrics(m),
	)

	err = bootstrap.Run(ctx, cfg, bootstrap.Dependencies{
		Slots:      slotService,
		Reschedule: rescheduleService,
		Metrics:    m,
		Logger:     l,
		Health: []bootstrap.HealthCheck{
			{Name: "postgres", Check: pool.Ping},
			{Name: "redis", Check: redisCache.Ping},
			{Name: "kafka", Check: producer.CheckConnection},
		},
	})
	if err != nil {
		l.Fatal("server error", zap.Error(err))
	}
}
