package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minsnailee/llm-detective/internal/config"
	"github.com/minsnailee/llm-detective/internal/handlers"
	"github.com/minsnailee/llm-detective/internal/logger"
	"github.com/minsnailee/llm-detective/internal/middleware"
	"github.com/minsnailee/llm-detective/internal/services"
	"github.com/minsnailee/llm-detective/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting LLM Detective API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"ask_base_url", cfg.AskBaseURL)

	cache := services.NewRedisService(cfg.RedisURL, log)
	cacheCtx, cacheCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cacheCancel()

	if err := cache.WaitForConnection(cacheCtx); err != nil {
		log.Error("Failed to connect to cache", "error", err)
		os.Exit(1)
	}
	log.Info("Cache connection established successfully")

	asker := services.NewHTTPAskClient(cfg.AskBaseURL, nil, log)
	scenarios := storage.NewScenarioStore(cfg.DataDir, log)
	manager := handlers.NewSessionManager(log, cache, asker, scenarios)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cache, log)
	mux.Handle("/health", healthHandler)

	scenarioHandler := handlers.NewScenarioHandler(log, scenarios)
	mux.Handle("/v1/scenarios", scenarioHandler)
	mux.Handle("/v1/scenarios/", scenarioHandler)

	sessionHandler := handlers.NewSessionHandler(log, manager)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	// Stop every live session before the cache goes away. Timers are
	// persisted per tick, so nothing meaningful is lost here.
	manager.Shutdown()

	if err := cache.Close(); err != nil {
		log.Error("Error closing cache connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
