package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-planner/internal/config"
)

const serviceName = "planner"

var globalLogger zerolog.Logger

// InitDefaultLogger installs the logger used until the configuration is
// read. It writes JSON to stderr so stdout stays free for CLI output.
func InitDefaultLogger() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimestampFieldName = "timestamp"

	globalLogger = zerolog.New(os.Stderr).
		With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Int("pid", os.Getpid()).
		Logger()

	globalLogger.Debug().Msg("initialized default logger")
}

func MustInitApplicationLogger() {
	cfg := config.Global()

	level, w, err := envLogging(cfg.Env, os.Stderr)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("env", cfg.Env).
			Msg("failed to init application logger")
		panic(err)
	}

	zerolog.SetGlobalLevel(level)
	globalLogger = globalLogger.Output(w)
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("level", level.String()).
		Msg("initialized application logger")
}

// envLogging picks the level and the writer for env. Local runs get a
// human-readable console writer on top of out.
func envLogging(env string, out io.Writer) (zerolog.Level, io.Writer, error) {
	switch env {
	case config.EnvDev:
		return zerolog.DebugLevel, out, nil
	case config.EnvProd:
		return zerolog.InfoLevel, out, nil
	case config.EnvLocal:
		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = out
		return zerolog.TraceLevel, consoleWriter, nil
	default:
		return zerolog.NoLevel, nil, fmt.Errorf("%w: %q", config.ErrUnknownEnv, env)
	}
}
