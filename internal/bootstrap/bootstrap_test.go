package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeConnectError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		contains string
	}{
		{
			name:     "invalid credentials",
			err:      fmt.Errorf("failed to ping database: %w", &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}),
			contains: "invalid database credentials",
		},
		{
			name:     "unknown host",
			err:      fmt.Errorf("dial: %w", &net.DNSError{Name: "db.invalid", Err: "no such host", IsNotFound: true}),
			contains: `unknown database host "db.invalid"`,
		},
		{
			name:     "connection refused",
			err:      &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)},
			contains: "connection refused",
		},
		{
			name:     "timeout",
			err:      fmt.Errorf("failed to ping database: %w", context.DeadlineExceeded),
			contains: "timed out",
		},
		{
			name:     "other",
			err:      fmt.Errorf("boom"),
			contains: "unexpected database error",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Contains(t, DescribeConnectError(tc.err), tc.contains)
		})
	}
}

func TestToLevel(t *testing.T) {
	testCases := []struct {
		level    string
		expected slog.Level
	}{
		{level: "debug", expected: slog.LevelDebug},
		{level: "WARN", expected: slog.LevelWarn},
		{level: " error ", expected: slog.LevelError},
		{level: "info", expected: slog.LevelInfo},
		{level: "verbose", expected: slog.LevelInfo},
		{level: "", expected: slog.LevelInfo},
	}
	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			assert.Equal(t, tc.expected, toLevel(tc.level))
		})
	}
}

func TestNewLogger(t *testing.T) {
	// given
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	// when
	logger.Info("dropped")
	logger.Warn("kept", "component", "test")

	// then
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "test", record["component"])
	assert.NotContains(t, record, "source")
}

func TestNewDbPool_InvalidURL(t *testing.T) {
	// when
	pool, err := NewDbPool(context.Background(), "postgres://%zz", time.Second)

	// then
	require.Error(t, err)
	assert.Nil(t, pool)
	assert.Contains(t, err.Error(), "failed to parse database URL")
}
