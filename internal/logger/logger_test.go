package logger

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	require.NoError(t, Setup(LogConfig{Level: "WARN", Format: "json", Output: "discard"}))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	assert.Error(t, Setup(LogConfig{Level: "loud", Output: "discard"}))
}

func TestWithContext(t *testing.T) {
	require.NoError(t, Setup(LogConfig{Level: "info", Format: "json", Output: "discard"}))

	assert.NotNil(t, WithContext(context.Background()))

	reqLog := WithRequestID("req-1")
	ctx := reqLog.WithContext(context.Background())
	assert.Same(t, zerolog.Ctx(ctx), WithContext(ctx))
}
