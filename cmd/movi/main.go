// MOVI orchestration server - provides the conversational message/confirm
// HTTP API and manages the graph runtime, session store, and LLM intent
// parser backend.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/RudraKhare/movi-agent/pkg/api"
	"github.com/RudraKhare/movi-agent/pkg/audit"
	"github.com/RudraKhare/movi-agent/pkg/config"
	"github.com/RudraKhare/movi-agent/pkg/consequence"
	"github.com/RudraKhare/movi-agent/pkg/database"
	"github.com/RudraKhare/movi-agent/pkg/domain"
	"github.com/RudraKhare/movi-agent/pkg/executor"
	"github.com/RudraKhare/movi-agent/pkg/intent"
	"github.com/RudraKhare/movi-agent/pkg/llmclient"
	"github.com/RudraKhare/movi-agent/pkg/orchestrator"
	"github.com/RudraKhare/movi-agent/pkg/resolver"
	"github.com/RudraKhare/movi-agent/pkg/selection"
	"github.com/RudraKhare/movi-agent/pkg/session"
	"github.com/RudraKhare/movi-agent/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// maxLLMTimeouts bounds how many consecutive failed LLM parses (each one
// after the client's full retry ladder) the intent parser tolerates before falling back to the regex parser for the rest of
// the process lifetime (spec.md §4.2 "LLM backend unavailable -> regex
// fallback, sticky for the process").
const maxLLMTimeouts = 3

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}

	gin.SetMode(cfg.Server.GinMode)
	slog.Info("starting "+version.Full(), "http_port", cfg.Server.HTTPPort, "gin_mode", cfg.Server.GinMode, "config_dir", *configDir)

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database pool", "error", err)
		}
	}()
	slog.Info("connected to postgres, migrations applied")

	llm, err := llmclient.NewClient(cfg.LLM.Address,
		llmclient.WithModel(cfg.LLM.Model),
		llmclient.WithTemperature(cfg.LLM.Temperature),
		llmclient.WithMaxTokens(cfg.LLM.MaxTokens),
		llmclient.WithRetryLadder(cfg.LLM.AttemptTimeout, cfg.LLM.MaxAttempts),
	)
	if err != nil {
		log.Fatalf("Failed to init LLM client: %v", err)
	}
	defer func() {
		if err := llm.Close(); err != nil {
			slog.Error("error closing llm client", "error", err)
		}
	}()

	domainStore := domain.NewStore(db)
	sessions := session.NewStore(db)
	auditLogger := audit.NewLogger(db)

	intentParser := intent.NewParser(llm, maxLLMTimeouts)
	entityResolver := resolver.NewResolver(domainStore)
	consequenceChecker := consequence.NewChecker(domainStore, sessions)
	selectionProvider := selection.NewProvider(domainStore)
	actionExecutor := executor.New(domainStore, sessions, auditLogger)

	engine := orchestrator.New(intentParser, entityResolver, consequenceChecker, selectionProvider, actionExecutor, sessions)

	reaper := session.NewReaper(sessions, cfg.Reaper.SweepInterval)
	reaper.Start(ctx)
	defer reaper.Stop()
	slog.Info("session reaper started", "sweep_interval", cfg.Reaper.SweepInterval)

	server := api.New(engine, sessions, actionExecutor, db)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("http server listening", "port", cfg.Server.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
}
