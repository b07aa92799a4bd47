package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope(t *testing.T) {
	for _, scope := range []string{"graph.embedded", "events.nats", ""} {
		attr := Scope(scope)
		assert.Equal(t, "scope", attr.Key)
		assert.Equal(t, scope, attr.Value.String())
	}
}

func TestError(t *testing.T) {
	for _, err := range []error{errors.New("store closed"), nil, errors.Join(errors.New("a"), errors.New("b"))} {
		attr := Error(err)
		assert.Equal(t, "error", attr.Key)
		assert.Equal(t, err, attr.Value.Any())
	}
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		env      string
		enabled  slog.Level
		disabled *slog.Level
	}{
		{env: "", enabled: slog.LevelInfo, disabled: ptr(slog.LevelDebug)},
		{env: "debug", enabled: slog.LevelDebug},
		{env: "DeBuG", enabled: slog.LevelDebug},
		{env: "warn", enabled: slog.LevelWarn, disabled: ptr(slog.LevelInfo)},
		{env: "warning", enabled: slog.LevelWarn, disabled: ptr(slog.LevelInfo)},
		{env: "error", enabled: slog.LevelError, disabled: ptr(slog.LevelWarn)},
		{env: "nonsense", enabled: slog.LevelInfo, disabled: ptr(slog.LevelDebug)},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run("LOG_LEVEL="+tt.env, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.env)
			t.Setenv("GO_ENV", "")

			log := NewLogger()
			require.NotNil(t, log)
			assert.True(t, log.Enabled(ctx, tt.enabled))
			if tt.disabled != nil {
				assert.False(t, log.Enabled(ctx, *tt.disabled))
			}
		})
	}
}

func TestNewLogger_Production(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("GO_ENV", "production")

	log := NewLogger()
	_, isJSON := log.Handler().(*slog.JSONHandler)
	assert.True(t, isJSON)
}

func TestNewZap(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	z, err := NewZap()
	require.NoError(t, err)
	assert.False(t, z.Core().Enabled(-1))
	assert.True(t, z.Core().Enabled(2))
}

func ptr(l slog.Level) *slog.Level { return &l }
