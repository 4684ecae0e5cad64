package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Constraint names are fixed so unique violations can be mapped to fields.
const (
	constraintPK    = "associados_pkey"
	constraintEmail = "associados_email_key"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS associados (
	cpf_associado   VARCHAR(15)  NOT NULL,
	nome_associado  VARCHAR(255) NOT NULL,
	email_associado VARCHAR(255) NOT NULL,
	CONSTRAINT ` + constraintPK + ` PRIMARY KEY (cpf_associado),
	CONSTRAINT ` + constraintEmail + ` UNIQUE (email_associado)
)`

// EnsureSchema creates the associados table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create associados table: %w", err)
	}
	return nil
}

// PoolConfig bounds the connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// Open opens a pooled PostgreSQL handle and verifies it with a ping.
func Open(ctx context.Context, dsn string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", withConnectTimeout(dsn, pool.ConnectTimeout))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// withConnectTimeout appends connect_timeout to URL-style DSNs that lack it.
func withConnectTimeout(dsn string, d time.Duration) string {
	if d <= 0 || strings.Contains(dsn, "connect_timeout") {
		return dsn
	}
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return fmt.Sprintf("%s%sconnect_timeout=%d", dsn, sep, secs)
	}
	return fmt.Sprintf("%s connect_timeout=%d", dsn, secs)
}

// BuildDSN assembles a URL DSN from discrete connection settings.
func BuildDSN(host, user, password, dbname string) string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     host,
		Path:     "/" + dbname,
		RawQuery: "sslmode=disable",
	}
	if password != "" {
		u.User = url.UserPassword(user, password)
	} else if user != "" {
		u.User = url.User(user)
	}
	return u.String()
}
