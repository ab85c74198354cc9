package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"

	"github.com/14kear/siteVoting/internal/app"
	"github.com/14kear/siteVoting/internal/config"
	"github.com/14kear/siteVoting/internal/lib/logger"
	"github.com/14kear/siteVoting/internal/services"
)

func main() {
	// .env необязателен: переменные могут прийти из окружения
	_ = godotenv.Load()

	cfg := config.MustLoad()

	log := logger.New(cfg.Env)
	if cfg.Env != logger.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	application, err := app.NewApp(log, cfg, services.SystemClock{})
	if err != nil {
		log.Error("failed to init application", sl.Err(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		log.Error("failed to start application", sl.Err(err))
		os.Exit(1)
	}

	go func() {
		if err := application.HTTPServer.Run(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				log.Info("HTTP server closed gracefully")
			} else {
				log.Error("failed to run HTTP server", sl.Err(err))
				stop()
			}
		}
	}()

	log.Info("voting service started",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.HTTP.Port),
		slog.String("storage", cfg.Storage.Type),
	)

	<-ctx.Done()

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := application.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop application", sl.Err(err))
		os.Exit(1)
	}
}
