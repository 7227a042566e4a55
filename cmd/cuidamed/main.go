package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/cuidamed/internal/config"
	"github.com/dukerupert/cuidamed/internal/database"
	"github.com/dukerupert/cuidamed/internal/logging"
	"github.com/dukerupert/cuidamed/internal/push"
	"github.com/dukerupert/cuidamed/internal/server"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "genvapid" {
		genVAPID()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	loc, err := cfg.Location()
	if err != nil {
		slog.Error("invalid timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// A nil client keeps the API and scheduler running; every send then
	// reports push.ErrNotInitialized.
	pushClient, err := push.New(push.Config{
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		Subscriber:      cfg.VAPIDSubscriber,
		ExpoURL:         cfg.ExpoPushURL,
		ExpoAccessToken: cfg.ExpoAccessToken,
	})
	if err != nil {
		slog.Error("push transport not initialized", "error", err)
		pushClient = nil
	} else if pushClient.VAPIDPublicKey() == "" {
		slog.Warn("VAPID keys not set, web push disabled")
	}

	srv := server.New(db, server.Config{
		JWTSecret:        cfg.JWTSecret,
		JWTTTL:           cfg.JWTTTL,
		AllowedOrigins:   cfg.AllowedOrigins,
		ReminderInterval: cfg.ReminderInterval,
		Location:         loc,
	}, pushClient, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.Scheduler().Start(ctx)

	// Background cleanup goroutine
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("cuidamed starting", "addr", httpServer.Addr, "timezone", cfg.Timezone)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cancel()
	srv.Scheduler().Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// genVAPID prints a fresh VAPID key pair in env file form.
func genVAPID() {
	pub, priv, err := push.GenerateVAPIDKeys()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("CUIDAMED_VAPID_PUBLIC_KEY=%s\nCUIDAMED_VAPID_PRIVATE_KEY=%s\n", pub, priv)
}
