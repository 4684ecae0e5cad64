package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/clube/associados/internal/config"
	"github.com/clube/associados/internal/storage"
)

// migrate bootstraps the configured backend: the associados table on
// PostgreSQL, or the DynamoDB table. With --list it also prints the number
// of stored members.
func main() {
	path := "config/config.yaml"
	listOnly := false
	for _, a := range os.Args[1:] {
		if a == "--list" {
			listOnly = true
		} else {
			path = a
		}
	}

	cfg, err := config.LoadFromEnv(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.DynamoDB.CreateTable = true

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap %s: %v", cfg.Storage.Type, err)
	}
	defer store.Close()
	log.Printf("Storage %s ready", store.Type)

	if listOnly {
		all, err := store.Repo.ListAll(ctx)
		if err != nil {
			log.Fatalf("list: %v", err)
		}
		fmt.Printf("Total: %d associados\n", len(all))
	}
	log.Println("Migrations complete")
}
