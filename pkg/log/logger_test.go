package log_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/argyll/worker/pkg/log"
)

func TestNew(t *testing.T) {
	ctx := context.Background()
	logger := log.New("worker", "test", "1.0.0")
	assert.NotNil(t, logger)
	assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.False(t, logger.Enabled(ctx, slog.LevelDebug))
}

func TestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, log.Level("debug"))
	assert.Equal(t, slog.LevelInfo, log.Level("info"))
	assert.Equal(t, slog.LevelWarn, log.Level("warn"))
	assert.Equal(t, slog.LevelError, log.Level("error"))

	// unknown names fall back to info
	assert.Equal(t, slog.LevelInfo, log.Level("verbose"))
	assert.Equal(t, slog.LevelInfo, log.Level(""))
}

func TestNewWithLevel(t *testing.T) {
	ctx := context.Background()
	logger := log.NewWithLevel("worker", "test", "1.0.0", slog.LevelDebug)
	assert.True(t, logger.Enabled(ctx, slog.LevelDebug))

	logger = log.NewWithLevel("worker", "test", "1.0.0", slog.LevelError)
	assert.False(t, logger.Enabled(ctx, slog.LevelWarn))
	assert.True(t, logger.Enabled(ctx, slog.LevelError))
}
