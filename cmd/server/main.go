package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nicrpayne/white-elephant-sub000/internal/cache"
	"github.com/nicrpayne/white-elephant-sub000/internal/config"
	"github.com/nicrpayne/white-elephant-sub000/internal/database"
	"github.com/nicrpayne/white-elephant-sub000/internal/game"
	"github.com/nicrpayne/white-elephant-sub000/internal/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	}

	ctx := context.Background()

	if cfg.DatabaseURL != "" {
		if err := database.Connect(ctx, cfg.DatabaseURL); err != nil {
			logrus.WithError(err).Fatal("connect database")
		}
		defer database.Close()
		if err := database.Migrate(ctx); err != nil {
			logrus.WithError(err).Fatal("run migrations")
		}
	} else {
		logrus.Warn("DATABASE_URL not set, sessions are in-memory only")
	}

	if cfg.RedisURL != "" {
		if err := cache.InitRedis(ctx, cfg.RedisURL); err != nil {
			logrus.WithError(err).Fatal("connect redis")
		}
		defer cache.Close()
	} else {
		logrus.Warn("REDIS_URL not set, change stream disabled")
	}

	manager := game.NewManager()
	h := handlers.New(manager, []byte(cfg.JWTSecret))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", cfg.ListenAddr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("shutdown")
	}
}
