package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/basket/internal/backup"
	"github.com/dukerupert/basket/internal/config"
	"github.com/dukerupert/basket/internal/database"
	"github.com/dukerupert/basket/internal/fanout"
	"github.com/dukerupert/basket/internal/logging"
	"github.com/dukerupert/basket/internal/server"
	"github.com/dukerupert/basket/internal/websocket"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(logger)

	var broker fanout.Broker = fanout.NewLocal(hub)
	if cfg.Redis.Enabled() {
		rdb, err := fanout.NewRedisClient(fanout.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Error("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		defer rdb.Close()

		relay := fanout.NewRedis(rdb, hub, logger)
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.Error("redis relay stopped", "error", err)
			}
		}()
		broker = relay
		logger.Info("snapshot fan-out via redis", "addr", cfg.Redis.Addr)
	}

	srv := server.New(db, hub, broker, server.Config{
		LookupLimit:  cfg.LookupLimit,
		LookupWindow: cfg.LookupWindow,
	}, logger)

	if cfg.Backup.Enabled() {
		bm := backup.NewManager(backup.Config{
			S3: backup.S3Config{
				Endpoint:  cfg.Backup.Endpoint,
				Bucket:    cfg.Backup.Bucket,
				Region:    cfg.Backup.Region,
				AccessKey: cfg.Backup.AccessKey,
				SecretKey: cfg.Backup.SecretKey,
			},
			Prefix:     cfg.Backup.Prefix,
			Interval:   cfg.Backup.Interval,
			Retention:  cfg.Backup.Retention,
			Passphrase: cfg.Backup.Passphrase,
		}, db, logger)
		srv.SetBackup(bm)
		go bm.Run(ctx)
		logger.Info("database snapshots enabled", "bucket", cfg.Backup.Bucket, "every", cfg.Backup.Interval)
	}

	go func() {
		ticker := time.NewTicker(cfg.LookupWindow)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	// No WriteTimeout: WebSocket subscriptions outlive any per-request deadline.
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("basketd listening", "addr", httpServer.Addr, "db", cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
