package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DocketWatch/internal/app"
	"DocketWatch/internal/config"
	apihttp "DocketWatch/internal/http"
	"DocketWatch/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single ingestion sweep and exit")
	seedOnly := flag.Bool("seed", false, "apply the seed file and exit")
	tokenFor := flag.String("token", "", "print an admin token for the given subject and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of tokens printed by -token")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	if *tokenFor != "" {
		if cfg.Admin.JWTSecret == "" {
			logger.Error("admin secret is not configured")
			os.Exit(1)
		}
		token, expiresAt, err := apihttp.GenerateAdminToken(cfg.Admin.JWTSecret, *tokenFor, *tokenTTL)
		if err != nil {
			logger.Error("sign token", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		logger.Info("token issued", "subject", *tokenFor, "expires_at", expiresAt)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}

	code := run(ctx, application, logger, *once, *seedOnly)

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := application.Close(closeCtx); err != nil {
		logger.Warn("close failed", "error", err)
	}
	if code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, application *app.Application, logger *slog.Logger, once, seedOnly bool) int {
	if err := application.Seed(ctx); err != nil {
		logger.Error("seed failed", "error", err)
		return 1
	}
	if seedOnly {
		return 0
	}

	if once {
		summary, err := application.RunOnce(ctx)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(summary)
		if err != nil {
			logger.Error("ingestion failed", "error", err)
			return 1
		}
		return 0
	}

	if err := application.Serve(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		return 1
	}
	return 0
}
