package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Config struct {
	DSN            string
	MaxConns       int
	Timeout        time.Duration
	TimeZone       string
	ClientEncoding string
}

// Connect opens a pooled *sqlx.DB and verifies connectivity with a ping.
// TimeZone and ClientEncoding are passed as run-time parameters so every
// pooled connection carries them.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	dsn, err := withSessionParams(cfg.DSN, cfg.TimeZone, cfg.ClientEncoding)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 5
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// withSessionParams adds timezone and client_encoding to a URL or
// key=value DSN. Empty values are left out.
func withSessionParams(dsn, tz, enc string) (string, error) {
	if tz == "" && enc == "" {
		return dsn, nil
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		q := u.Query()
		if tz != "" {
			q.Set("timezone", tz)
		}
		if enc != "" {
			q.Set("client_encoding", enc)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
	if tz != "" {
		dsn += " timezone=" + quoteLiteral(tz)
	}
	if enc != "" {
		dsn += " client_encoding=" + quoteLiteral(enc)
	}
	return strings.TrimSpace(dsn), nil
}

// quoteLiteral escapes single quotes and wraps the value in single quotes.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
