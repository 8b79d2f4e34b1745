package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/healthlearn/site/internal/app"
	"github.com/healthlearn/site/internal/config"
	"github.com/healthlearn/site/internal/pkg/jwt"
	"github.com/healthlearn/site/internal/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (default "+config.DefaultConfigPath+")")
	tokenFor := flag.String("token", "", "Print a studio token for the given subject and exit")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "Lifetime of the token printed by -token")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *tokenFor != "" {
		if cfg.JWTSecret != "" {
			jwt.SetSecret(cfg.JWTSecret)
		}
		token, err := jwt.Sign(*tokenFor, jwt.ScopeStudio, *tokenTTL)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Dir: cfg.Log.Dir, Dev: cfg.IsDev()})
	if err != nil {
		log, _ = zap.NewProduction()
		log.Warn("log file unavailable, fallback to zap production logger", zap.Error(err))
	}
	defer log.Sync()

	application, err := app.New(log, cfg)
	if err != nil {
		log.Fatal("failed to initialize app", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              application.Addr(),
		Handler:           application.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	application.Shutdown()
	log.Info("server exited")
}
