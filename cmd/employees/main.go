package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gartstein/roster/internal/employees/config"
	"github.com/gartstein/roster/internal/employees/controller"
	gorm "github.com/gartstein/roster/internal/employees/db"
	"github.com/gartstein/roster/internal/employees/events"
	"github.com/gartstein/roster/internal/employees/handlers"
	"github.com/gartstein/roster/internal/employees/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

// eventPublisher is the producer lifecycle main owns.
type eventPublisher interface {
	controller.EventProducer
	Close()
}

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		bootLogger, _ := zap.NewProduction()
		bootLogger.Fatal("failed to load config", zap.Error(err))
	}

	logger := initLogger(cfg.LogLevel)
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	repo, err := gorm.NewRepository(initDatabase(cfg))
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}()

	producer := initProducer(cfg, logger)
	defer producer.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	employeeSvc := controller.NewEmployeeService(repo, producer, m, logger)

	// Create handlers
	employeeHandler := handlers.NewEmployeeHandler(employeeSvc, logger, handlers.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		Metrics:        m,
		Gatherer:       registry,
		UploadLimiter:  initUploadLimiter(cfg),
	})

	// Create server
	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger)
	server.SetShutdownTimeout(cfg.ShutdownTimeout)
	server.RegisterHTTPHandler(employeeHandler.Routes())

	// Start servers
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start servers", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger at the configured level.
func initLogger(level string) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

// initDatabase maps the service configuration onto the repository config.
func initDatabase(cfg *config.Config) *gorm.Config {
	return &gorm.Config{
		Driver:    cfg.DBDriver,
		Path:      cfg.DBPath,
		Host:      cfg.DBHost,
		Port:      cfg.DBPort,
		User:      cfg.DBUser,
		Password:  cfg.DBPassword,
		DBName:    cfg.DBName,
		SSLMode:   cfg.DBSSLMode,
		BatchSize: cfg.DBBatchSize,
	}
}

// initProducer publishes to Kafka when brokers are configured and
// discards events otherwise.
func initProducer(cfg *config.Config, logger *zap.Logger) eventPublisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("No Kafka brokers configured, ingestion events are disabled")
		return events.NopProducer{}
	}
	if err := events.EnsureTopic(cfg.KafkaBrokers, cfg.Topic, logger); err != nil {
		logger.Warn("Failed to ensure Kafka topic", zap.String("topic", cfg.Topic), zap.Error(err))
	}
	return events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
}

// initUploadLimiter returns nil when upload throttling is disabled.
func initUploadLimiter(cfg *config.Config) *rate.Limiter {
	if cfg.UploadRatePerSec <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(cfg.UploadRatePerSec), cfg.UploadBurst)
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down servers.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Servers stopped properly")
}
