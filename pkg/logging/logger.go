package logging

import (
	"log/slog"
	"os"
)

// Name is the name of the application that the logger is for.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// name is the name of the application.
	name Name
}

// NewConfig creates a new logger configuration.
func NewConfig(name Name) *Config {
	return &Config{
		name: name,
	}
}

// CommonLogger creates the common logger for the application.
func CommonLogger(c *Config) (*slog.Logger, error) {
	l := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})).With(
		slog.String(KeyAppName, string(c.name)),
	)

	// Set the default logger so that any package level logging is consistent.
	slog.SetDefault(l)

	return l, nil
}
