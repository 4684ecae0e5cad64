package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/clube/associados/internal/api"
	"github.com/clube/associados/internal/config"
	"github.com/clube/associados/internal/pkg/logger"
	"github.com/clube/associados/internal/service/associado"
	"github.com/clube/associados/internal/storage"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %v\n"+
			"  Hint: set PORT to another value or stop the process holding it", addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  Associados API server (cmd/server)                        ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.Redact())

	addr := cfg.Server.Addr()
	if err := checkPortAvailable(addr); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	// Storage must be reachable before serving; a failed schema bootstrap
	// aborts startup.
	initCtx, initCancel := context.WithTimeout(context.Background(), 2*cfg.Server.ShutdownTimeout())
	store, err := storage.New(initCtx, cfg)
	initCancel()
	if err != nil {
		log.Fatalf("Failed to initialize storage (%s): %v", cfg.Storage.Type, err)
	}
	defer store.Close()
	log.Printf("Storage backend: %s", store.Type)

	// Pass a nil interface, not a nil *dynamo.Repo, when DynamoDB is unused.
	var dynamoPinger api.Pinger
	if store.Dynamo != nil {
		dynamoPinger = store.Dynamo
	}
	health := api.NewHealthChecker(store.Type, store.DB, store.Redis, dynamoPinger)

	handlers := api.NewHandlers(associado.NewService(store.Repo))
	router := api.SetupRoutes(handlers, health, api.RouteOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})
	server := api.NewServer(cfg.Server, router)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
