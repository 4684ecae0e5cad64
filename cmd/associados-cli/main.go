package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/clube/associados/internal/cli"
	"github.com/clube/associados/internal/client"
	"github.com/clube/associados/internal/config"
	"github.com/clube/associados/internal/pkg/httpretry"
	"github.com/clube/associados/internal/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	apiURL := flag.String("api", "", "API base URL (overrides ASSOCIADOS_API_URL)")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *apiURL != "" {
		cfg.Client.APIURL = *apiURL
	}
	// Retry chatter would interleave with the menu.
	logger.SetLevel(logger.WARN)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.Client.Timeout()}
	api := client.New(cfg.Client.APIURL, httpretry.NewRetryClient(httpClient, cfg.Client.Retries()))

	if err := cli.New(api, os.Stdin, os.Stdout).Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("cli: %v", err)
	}
}
