package logger

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name      string
		settings  map[string]any
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{
			name:      "missing section falls back to defaults",
			settings:  nil,
			wantLevel: zapcore.InfoLevel,
		},
		{
			name:      "explicit debug level",
			settings:  map[string]any{"logger.level": "debug"},
			wantLevel: zapcore.DebugLevel,
		},
		{
			name:     "invalid level rejected",
			settings: map[string]any{"logger.level": "loud"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for key, value := range tt.settings {
				v.Set(key, value)
			}

			cfg, err := newConfig(v)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, cfg.Level)
			assert.Equal(t, zapcore.ErrorLevel, cfg.StacktraceLevel)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{OutputPaths: []string{"stderr"}}.Validate())
	assert.Error(t, Config{OutputPaths: []string{"  "}}.Validate())
	assert.Error(t, Config{ErrorOutputPaths: []string{""}}.Validate())
}

func TestContextRoundTrip(t *testing.T) {
	logger := zap.NewNop()

	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))

	assert.NotNil(t, FromContext(context.Background()))
	assert.NotNil(t, FromContext(nil))
}

func TestThrottler_OneWarnPerInterval(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	throttler := NewThrottler(zap.New(core), time.Hour)

	for i := 0; i < 5; i++ {
		throttler.Warn("read-error", "broker unreachable")
	}
	throttler.Warn("other-key", "broker unreachable")

	warns := logs.FilterLevelExact(zapcore.WarnLevel).Len()
	debugs := logs.FilterLevelExact(zapcore.DebugLevel).Len()
	assert.Equal(t, 2, warns, "one warn per key per interval")
	assert.Equal(t, 4, debugs)
}
