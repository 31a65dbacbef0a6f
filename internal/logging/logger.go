package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelEnvVar names the environment variable that controls the log level.
const LevelEnvVar = "PHOTO_UPLOADER_LOG_LEVEL"

// Init initializes the global logger with configuration from environment variables.
// PHOTO_UPLOADER_LOG_LEVEL controls the log level: debug, info, warn, error (default: info)
func Init() {
	zerolog.SetGlobalLevel(ParseLevel(EnvOrDefault(LevelEnvVar, "info")))
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
