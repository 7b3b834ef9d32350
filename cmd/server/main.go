package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"clinical-trials-agent-backend/config"
	"clinical-trials-agent-backend/controller"
	"clinical-trials-agent-backend/router"
	"clinical-trials-agent-backend/service/chat"
	"clinical-trials-agent-backend/service/registry"
	"clinical-trials-agent-backend/service/session"
	"clinical-trials-agent-backend/utils"
)

func main() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	path := flag.String("config", defaultPath, "path to config file")
	flag.Parse()

	if err := config.Init(*path); err != nil {
		slog.Error("Failed to load config", "path", *path, "err", err)
		os.Exit(1)
	}
	setupLogger(config.Cfg.Log)

	if config.Cfg.JWT.SecretKey == "" {
		secret, err := utils.GenerateSecret(32)
		if err != nil {
			slog.Error("Failed to generate jwt secret", "err", err)
			os.Exit(1)
		}
		config.Cfg.JWT.SecretKey = secret
		slog.Warn("jwt.secret_key not set, using a random secret for this process")
	}

	pubmed := registry.NewPubMedClient(config.Cfg.PubMed, nil)
	registryClient := registry.NewClient(config.Cfg.Registry, pubmed)

	gateway, err := chat.NewOpenAIGateway(config.Cfg.Model, config.Cfg.Retry)
	if err != nil {
		slog.Error("Failed to create llm gateway", "err", err)
		os.Exit(1)
	}

	store := session.NewStore(config.Cfg.Session)
	orchestrator := session.NewOrchestrator(registryClient, gateway)
	r := router.Register(controller.New(store, orchestrator))

	srv := &http.Server{
		Addr:    ":" + config.Cfg.Server.Port,
		Handler: r,
	}

	go func() {
		slog.Info("Server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server stopped unexpectedly", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// 等待进行中的模型调用，上限为一次模型调用的超时
	ctx, cancel := context.WithTimeout(context.Background(), config.Cfg.Model.Timeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Failed to shutdown server", "err", err)
	}
	slog.Info("Server exited", "active_sessions", store.Count())
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
