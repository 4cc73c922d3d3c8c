package config

import (
	"fmt"
	"path"
	"time"

	"github.com/eskrenkovic/wager-rooms/internal/modules/countdown"
	"github.com/eskrenkovic/wager-rooms/internal/modules/env"
	"github.com/eskrenkovic/wager-rooms/internal/modules/player"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	PortEnv             = "PORT"
	DatabaseUrlEnv      = "DATABASE_URL"
	RootPathEnv         = "ROOT_PATH"
	CountdownSecondsEnv = "COUNTDOWN_SECONDS"
	CountdownTickEnv    = "COUNTDOWN_TICK"
	LogLevelEnv         = "LOG_LEVEL"
	SeedPlayersEnv      = "SEED_PLAYERS"

	defaultPort = 8080
)

type CountdownConfiguration struct {
	Seconds int
	Tick    time.Duration
}

type Config struct {
	Logger *zap.Logger

	Port int
	// DatabaseURL is empty when the service runs on in-memory stores.
	DatabaseURL    string
	MigrationsPath string

	Countdown   CountdownConfiguration
	SeedPlayers []player.Seed
}

func Load() (Config, error) {
	level, err := zapcore.ParseLevel(env.GetStringOrDefault(LogLevelEnv, "info"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", LogLevelEnv, err)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := loggerConfig.Build()
	if err != nil {
		return Config{}, err
	}

	port, err := env.GetIntOrDefault(PortEnv, defaultPort)
	if err != nil {
		return Config{}, err
	}

	countdownSeconds, err := env.GetIntOrDefault(CountdownSecondsEnv, countdown.DefaultStart)
	if err != nil {
		return Config{}, err
	}

	countdownTick, err := env.GetDurationOrDefault(CountdownTickEnv, countdown.DefaultInterval)
	if err != nil {
		return Config{}, err
	}

	seeds, err := player.ParseSeeds(env.GetStringOrDefault(SeedPlayersEnv, ""))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", SeedPlayersEnv, err)
	}

	rootPath := env.GetStringOrDefault(RootPathEnv, ".")
	migrationsPath := path.Join(rootPath, "db", "migrations")

	return Config{
		Logger:         logger,
		Port:           port,
		DatabaseURL:    env.GetStringOrDefault(DatabaseUrlEnv, ""),
		MigrationsPath: migrationsPath,
		Countdown: CountdownConfiguration{
			Seconds: countdownSeconds,
			Tick:    countdownTick,
		},
		SeedPlayers: seeds,
	}, nil
}
