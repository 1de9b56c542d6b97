package common

import (
	"os"
	"strings"

	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
)

// SetGnarkLogLevel routes gnark's compiler and prover logs through a
// zerolog console writer. "disabled" or "off" silences them.
func SetGnarkLogLevel(level string) error {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "off" || level == "disabled" {
		logger.Disable()
		return nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	logger.Set(zerolog.New(out).Level(lvl).With().Timestamp().Logger())
	return nil
}
