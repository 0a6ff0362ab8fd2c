package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitConfiguresGlobalLogger(t *testing.T) {
	t.Cleanup(func() { Replace(nil) })

	require.NoError(t, Init("debug"))
	require.True(t, Logger().Core().Enabled(zap.DebugLevel))

	require.NoError(t, Init("warn", "console"))
	require.False(t, Logger().Core().Enabled(zap.InfoLevel))

	require.NoError(t, Init("loud"))
	require.True(t, Logger().Core().Enabled(zap.InfoLevel))
	require.False(t, Logger().Core().Enabled(zap.DebugLevel))
}

func TestWithModuleAttachesModuleField(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	t.Cleanup(func() { Replace(nil) })
	Replace(zap.New(core))

	WithModule("profile").Info("module test")

	entries := recorded.All()
	require.Len(t, entries, 1)
	require.Equal(t, "profile", entries[0].ContextMap()["module"])
}

func TestForUsesRequestLogger(t *testing.T) {
	globalCore, globalLogs := observer.New(zap.InfoLevel)
	t.Cleanup(func() { Replace(nil) })
	Replace(zap.New(globalCore))

	requestCore, requestLogs := observer.New(zap.InfoLevel)
	ctx := IntoContext(context.Background(), zap.New(requestCore).With(zap.String("request_id", "req-1")))

	For(ctx, "settings").Info("saved")
	For(context.Background(), "settings").Info("fallback")

	require.Len(t, requestLogs.All(), 1)
	fields := requestLogs.All()[0].ContextMap()
	require.Equal(t, "req-1", fields["request_id"])
	require.Equal(t, "settings", fields["module"])

	require.Len(t, globalLogs.All(), 1)
	require.Equal(t, "fallback", globalLogs.All()[0].Message)
}
