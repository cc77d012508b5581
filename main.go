package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eursukkul/studio-booking/config"
	"github.com/Eursukkul/studio-booking/internal/auth"
	"github.com/Eursukkul/studio-booking/internal/consumer"
	"github.com/Eursukkul/studio-booking/internal/handler"
	"github.com/Eursukkul/studio-booking/internal/middleware"
	"github.com/Eursukkul/studio-booking/internal/repository"
	"github.com/Eursukkul/studio-booking/internal/scheduler"
	"github.com/Eursukkul/studio-booking/internal/service"
	"github.com/Eursukkul/studio-booking/pkg/database"
	"github.com/Eursukkul/studio-booking/pkg/logger"
	"github.com/Eursukkul/studio-booking/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := config.Load()
	log := logger.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		fatal(log, "invalid configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		fatal(log, "failed to open database", err)
	}
	log.Info("database ready", "driver", cfg.DBDriver)

	// Repositories
	sessionRepo := repository.NewSessionRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	waitlistRepo := repository.NewWaitlistRepository(db)

	// RabbitMQ publisher: booking and waitlist notifications
	var publisher service.EventPublisher
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, log)
		if err != nil {
			fatal(log, "failed to connect to RabbitMQ", err)
		}
		defer p.Close()
		publisher = p
	} else {
		log.Warn("RABBITMQ_URL not set, notifications disabled")
	}

	// Services
	opts := service.Options{ResponseWindow: cfg.WaitlistResponseWindow, Logger: log}
	bookingSvc := service.NewBookingService(sessionRepo, bookingRepo, waitlistRepo, publisher, opts)
	waitlistSvc := service.NewWaitlistService(sessionRepo, bookingRepo, waitlistRepo, publisher, opts)
	sessionSvc := service.NewSessionService(sessionRepo, bookingRepo)

	// RabbitMQ consumer: sync class sessions from the scheduling side
	var consumerDone <-chan struct{}
	if cfg.RabbitURL != "" {
		mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, rabbitmq.SessionQueue, rabbitmq.SessionBindingKey, log)
		if err != nil {
			fatal(log, "failed to connect to RabbitMQ", err)
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume()
		if err != nil {
			fatal(log, "failed to start consuming", err)
		}
		consumerDone = consumer.NewSessionConsumer(sessionSvc, log).Start(ctx, msgs)
	}

	// Waitlist expiry sweep
	var sweeper *scheduler.WaitlistSweeper
	if cfg.WaitlistSweepSchedule != "" {
		sweeper, err = scheduler.NewWaitlistSweeper(cfg.WaitlistSweepSchedule, waitlistSvc, log)
		if err != nil {
			fatal(log, "failed to schedule waitlist sweep", err)
		}
		sweeper.Start()
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.NewErrorHandler(log)
	e.Validator = middleware.NewValidator()
	e.Use(echoMw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "studio-booking"})
	})

	authn := auth.NewAuthenticator(cfg.JWTSecret, log)
	api := e.Group("/api/v1", authn.Middleware)
	handler.NewSessionHandler(sessionSvc).RegisterRoutes(api)
	handler.NewBookingHandler(bookingSvc).RegisterRoutes(api)
	handler.NewWaitlistHandler(waitlistSvc).RegisterRoutes(api)

	go func() {
		log.Info("studio booking service starting", "port", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "server stopped", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "err", err)
	}
	if sweeper != nil {
		sweeper.Stop(shutdownCtx)
	}
	if consumerDone != nil {
		select {
		case <-consumerDone:
		case <-shutdownCtx.Done():
		}
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err)
	os.Exit(1)
}
