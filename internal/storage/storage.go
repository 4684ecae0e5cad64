// Package storage selects and opens the member repository named by config.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clube/associados/internal/config"
	"github.com/clube/associados/internal/pkg/distlock"
	"github.com/clube/associados/internal/pkg/logger"
	"github.com/clube/associados/internal/repository/dynamo"
	"github.com/clube/associados/internal/repository/memory"
	"github.com/clube/associados/internal/repository/postgres"
	"github.com/clube/associados/internal/repository/redisrepo"
	"github.com/clube/associados/internal/service/associado"
)

// schemaLockKey serializes schema bootstrap across replicas starting together.
const schemaLockKey = "associados:schema"

// Storage bundles the active repository with the backend handles that the
// health checks and shutdown need. Handles for unused backends are nil.
type Storage struct {
	Type   string
	Repo   associado.Repository
	DB     *sql.DB
	Redis  *redis.Client
	Dynamo *dynamo.Repo

	closers []func() error
}

// New opens the backend selected by cfg.Storage.Type. Relational and
// DynamoDB backends get their schema or table ensured before use.
func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Storage{Type: cfg.Storage.Type}

	switch cfg.Storage.Type {
	case config.StorageMemory:
		s.Repo = memory.New(memory.WithDelay(cfg.Storage.MemoryDelay()))

	case config.StoragePostgres:
		db, err := OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		lock := distlock.NewPGAdvisoryLock(db, schemaLockKey)
		if err := lock.With(ctx, func() error { return postgres.EnsureSchema(ctx, db) }); err != nil {
			s.Close()
			return nil, fmt.Errorf("initializing database: %w", err)
		}
		s.DB = db
		s.Repo = postgres.NewAssociadoRepo(db)

	case config.StorageRedis:
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		s.closers = append(s.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			s.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		s.Redis = client
		s.Repo = redisrepo.New(client, cfg.Redis.KeyPrefix)

	case config.StorageDynamoDB:
		client, err := dynamo.NewClient(ctx, dynamo.ClientConfig{
			Region:    cfg.DynamoDB.Region,
			Profile:   cfg.DynamoDB.Profile,
			Endpoint:  cfg.DynamoDB.Endpoint,
			AccessKey: cfg.DynamoDB.AccessKey,
			SecretKey: cfg.DynamoDB.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing DynamoDB: %w", err)
		}
		repo := dynamo.New(client, cfg.DynamoDB.Table)
		if cfg.DynamoDB.CreateTable {
			wait := time.Duration(cfg.DynamoDB.TableWaitSecs) * time.Second
			if err := repo.EnsureTable(ctx, wait); err != nil {
				return nil, fmt.Errorf("initializing DynamoDB table: %w", err)
			}
		}
		s.Dynamo = repo
		s.Repo = repo
	}

	logger.Info("storage ready", "type", s.Type)
	return s, nil
}

// OpenPostgres opens the pool described by cfg, building the DSN from the
// discrete DB_* settings when no URL is given.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = postgres.BuildDSN(cfg.Host, cfg.User, cfg.Password, cfg.Name)
	}
	db, err := postgres.Open(ctx, dsn, postgres.PoolConfig{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMins) * time.Minute,
		ConnectTimeout:  time.Duration(cfg.ConnectTimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	return db, nil
}

// Close releases every backend handle in reverse order of opening.
func (s *Storage) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
