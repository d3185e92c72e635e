package app

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/adanyl0v/go-todo-planner/internal/config"
)

// MustReadConfig reads the config from the environment, or from path
// with environment overrides when path is set.
func MustReadConfig(path string) {
	var reader config.Reader = config.NewEnvReader()
	if path != "" {
		reader = config.NewFileReader(path)
	}

	cfg, err := reader.Read()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to read config")
		panic(err)
	}
	globalLogger.Info().
		Str("env", cfg.Env).
		Str("snapshot_driver", cfg.Snapshot.Driver).
		Bool("mirror_enabled", cfg.Mirror.Enabled).
		Msg("read config")

	config.SetGlobal(cfg)
}
