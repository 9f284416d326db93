package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestLoggerConfig_ToZapLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for level, want := range tests {
		assert.Equal(t, want, (&LoggerConfig{Level: level}).ToZapLevel(), level)
	}
}

func TestConfigFromLookup(t *testing.T) {
	env := map[string]string{"LOG_LEVEL": "DEBUG", "LOG_FORMAT": "Text", "LOG_OUTPUT_FILE": ""}
	cfg := configFromLookup(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "stdout", cfg.OutputFile)
}

func TestNew_NamedAndWith(t *testing.T) {
	l := New(&LoggerConfig{Level: "error", Format: "json", OutputFile: "stderr"})

	named := l.Named("UserUsecase")
	assert.Equal(t, "UserUsecase", named.Logger.Name())
	assert.False(t, named.Core().Enabled(zapcore.InfoLevel))
	assert.NotNil(t, NewNop().With())
}
