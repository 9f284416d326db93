package logger

import (
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

// LoggerConfig selects the level, encoding and destination of the service log.
type LoggerConfig struct {
	Level      string
	Format     string
	OutputFile string
}

// DefaultConfig reads LOG_LEVEL, LOG_FORMAT and LOG_OUTPUT_FILE. Unset keys mean info, json and stdout.
func DefaultConfig() *LoggerConfig {
	return configFromLookup(os.LookupEnv)
}

func configFromLookup(lookup func(string) (string, bool)) *LoggerConfig {
	value := func(key, fallback string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return fallback
	}
	return &LoggerConfig{
		Level:      strings.ToLower(value("LOG_LEVEL", "info")),
		Format:     strings.ToLower(value("LOG_FORMAT", "json")),
		OutputFile: value("LOG_OUTPUT_FILE", "stdout"),
	}
}

// ToZapLevel maps Level onto zap. "warning" is an alias of warn; anything unparsable is info.
func (c *LoggerConfig) ToZapLevel() zapcore.Level {
	if c.Level == "warning" {
		return zapcore.WarnLevel
	}
	lvl, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
