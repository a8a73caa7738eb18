package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aviary-labs/flightdesk/internal/app"
	"github.com/aviary-labs/flightdesk/internal/cache"
	"github.com/aviary-labs/flightdesk/internal/config"
	"github.com/aviary-labs/flightdesk/internal/handler"
	"github.com/aviary-labs/flightdesk/internal/notify"
	"github.com/aviary-labs/flightdesk/internal/repository"
	"github.com/aviary-labs/flightdesk/internal/router"
	"github.com/aviary-labs/flightdesk/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	rosterRepo := repository.NewRosterRepository(pool)
	slotRepo := repository.NewSlotRepository(pool)
	requestRepo := repository.NewLessonRequestRepository(pool)
	ticketRepo := repository.NewLessonTicketRepository(pool)

	var rosterCache service.RosterCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		rosterCache = cache.NewRosterCache(client, cfg.RosterCacheTTL, logger)
		logger.Info("Roster cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	notifier := buildNotifier(cfg, logger)

	scheduleService := service.NewScheduleService(rosterRepo, slotRepo, rosterCache, logger)
	lessonService := service.NewLessonService(requestRepo, notifier, logger)
	ticketService := service.NewTicketService(ticketRepo, notifier, logger)

	e := echo.New()
	e.HideBanner = true
	router.Register(
		e,
		handler.NewScheduleHandler(scheduleService),
		handler.NewLessonHandler(lessonService),
		handler.NewInstructorHandler(lessonService, ticketService),
		cfg.JWTSecret,
	)

	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("environment", cfg.Environment),
		)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

// buildNotifier assembles the configured event sinks. With nothing
// configured events are dropped.
func buildNotifier(cfg *config.Config, logger *zap.Logger) notify.Notifier {
	var sinks notify.Multi
	if cfg.AMQPURL != "" {
		sinks = append(sinks, notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue, logger))
		logger.Info("AMQP notifications enabled", zap.String("queue", cfg.AMQPQueue))
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Warn("Telegram notifications disabled", zap.Error(err))
		} else {
			sinks = append(sinks, tg)
			logger.Info("Telegram notifications enabled")
		}
	}
	if len(sinks) == 0 {
		return notify.Nop{}
	}
	return sinks
}
