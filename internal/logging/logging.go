// Package logging configures the global zerolog logger for annotate-ml.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EnvLevel names the environment variable read when no level is given.
const EnvLevel = "ANNOTATE_ML_LOG_LEVEL"

// DefaultLevel is used when neither a level nor EnvLevel is set.
const DefaultLevel = zerolog.InfoLevel

// Level resolves the log level from level, then EnvLevel, then DefaultLevel.
func Level(level string) (zerolog.Level, error) {
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	if level == "" {
		return DefaultLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return DefaultLevel, errors.Wrapf(err, "invalid log level %q", level)
	}
	return lvl, nil
}

// Setup points the global logger at w in human readable form and sets the
// global level. Stdout carries metrics and MCP traffic, so w is normally
// stderr.
func Setup(w io.Writer, level string) error {
	lvl, err := Level(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		With().
		Timestamp().
		Logger()
	return nil
}
