package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	dev, err := New(true)
	require.NoError(t, err)
	require.True(t, dev.Core().Enabled(zapcore.DebugLevel), "development logger should emit debug")

	prod, err := New(false)
	require.NoError(t, err)
	require.False(t, prod.Core().Enabled(zapcore.DebugLevel), "production logger should drop debug")
	require.True(t, prod.Core().Enabled(zapcore.InfoLevel))
}

// A fetch handler logs through the logger the request middleware stored,
// so its entries carry the request ID and post ID together.
func TestFromContextCarriesRequestFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)
	ctx := IntoContext(context.Background(), base.With(zap.String("request_id", "req-42")))

	FromContext(ctx, zap.NewNop()).Warn("fetch reddit content failed", zap.String("post_id", "abc123"))

	entries := logs.FilterMessage("fetch reddit content failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "req-42", fields["request_id"])
	require.Equal(t, "abc123", fields["post_id"])
}

func TestFromContextFallbacks(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	fallback := zap.New(core)
	FromContext(context.Background(), fallback).Info("request completed")
	require.Equal(t, 1, logs.FilterMessage("request completed").Len())

	// A nil logger stored in the context is ignored.
	ctx := IntoContext(context.Background(), nil)
	FromContext(ctx, fallback).Info("request completed")
	require.Equal(t, 2, logs.FilterMessage("request completed").Len())

	require.NotNil(t, FromContext(context.Background(), nil))
}
