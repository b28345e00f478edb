package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/homestead/layout-server/internal/api"
	"github.com/homestead/layout-server/internal/backend"
	"github.com/homestead/layout-server/internal/config"
	"github.com/homestead/layout-server/internal/layout"
	"github.com/homestead/layout-server/internal/performance"
)

// main starts the homestead layout server: HTTP endpoints for rules,
// validation and plan exports, plus websocket designer sessions.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	policy, err := layout.LoadPolicy(cfg.Designer.RulesPath)
	if err != nil {
		log.Fatalf("Failed to load collision rules: %v", err)
	}
	if cfg.Designer.RulesPath != "" {
		log.Printf("Loaded collision rules from %s", cfg.Designer.RulesPath)
	}

	profiler := performance.NewProfiler(cfg.Logging.Profiling)
	client := backend.NewClient(cfg, profiler)

	healthCtx, cancel := context.WithTimeout(context.Background(), cfg.Backend.Timeout)
	if err := client.HealthCheck(healthCtx); err != nil {
		log.Printf("Warning: backend at %s is not healthy yet: %v", cfg.Backend.BaseURL, err)
	}
	cancel()

	router, hub := api.NewRouter(cfg, client, layout.NewValidator(policy), profiler)
	go hub.Run()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Layout server starting on %s (environment=%s)", srv.Addr, cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("Shutting down layout server")
	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	hub.Stop()

	if cfg.Logging.Profiling {
		profiler.LogReport()
	}
}
