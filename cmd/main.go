package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"marketBack/internal/cache"
	"marketBack/internal/config"
	"marketBack/internal/database"
)

func main() {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = config.DefaultPath
	}
	configPath := flag.String("config", defaultConfig, "path to the YAML config file")
	flag.Parse()

	bootLog, _ := zap.NewProduction()
	if err := godotenv.Load(); err != nil {
		bootLog.Warn("no .env file loaded", zap.Error(err))
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		bootLog.Fatal("load config", zap.Error(err))
	}

	logger, err := newLogger(cfg)
	if err != nil {
		bootLog.Fatal("build logger", zap.Error(err))
	}
	defer logger.Sync()

	infoLog, _ := zap.NewStdLogAt(logger, zapcore.InfoLevel)
	errorLog, _ := zap.NewStdLogAt(logger, zapcore.ErrorLevel)

	db, err := database.Open(cfg.Database.URL, cfg.Database.MaxOpen, cfg.Database.MaxIdle)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		applied, err := database.ApplyMigrations(db)
		if err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		logger.Info("migrations checked", zap.Bool("applied", applied))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// lookups, view dedupe and rate limiting degrade without Redis
	redisClient, err := cache.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Warn("redis unavailable, continuing without cache", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	app, err := initializeApp(cfg, db, redisClient, logger, infoLog, errorLog)
	if err != nil {
		logger.Fatal("initialize", zap.Error(err))
	}

	scheduler, err := app.startScheduler(ctx, cfg)
	if err != nil {
		logger.Fatal("start scheduler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		ErrorLog:     errorLog,
		Handler:      app.routes(cfg),
		IdleTimeout:  time.Minute,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		infoLog.Printf("Starting server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := scheduler.Shutdown(); err != nil {
		logger.Error("scheduler shutdown", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Log.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
