// Package bootstrap creates the process-wide logger and database handles.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// applicationName is reported to PostgreSQL in pg_stat_activity.
const applicationName = "products-api"

// NewLogger returns a JSON logger writing to w. Source locations are added at debug level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	logLevel := toLevel(level)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: logLevel == slog.LevelDebug,
		Level:     logLevel,
	}))
}

// NewDbPool connects to PostgreSQL and pings it once.
// connectTimeout bounds both the initial dial and every later dial made by the pool.
func NewDbPool(ctx context.Context, url string, connectTimeout time.Duration) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolCfg.ConnConfig.ConnectTimeout = connectTimeout
	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbPool, nil
}

// DescribeConnectError returns an operator hint for a failed database connection.
func DescribeConnectError(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "28P01" {
		return "invalid database credentials: check the user and password in the database URL"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Sprintf("unknown database host %q: check the host in the database URL", dnsErr.Name)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return "connection refused: the database server is offline or the URL points to the wrong host or port"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out connecting to the database: check network access and database.timeout"
	}
	return "unexpected database error"
}

func toLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}
