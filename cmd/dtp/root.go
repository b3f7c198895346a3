package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"

	"github.com/dtp-id/talenta/internal/config"
	gormdb "github.com/dtp-id/talenta/internal/db/gorm"
)

// Version is set at build time via ldflags.
var Version = "dev"

func newRootCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "dtp",
		Short: "DTP talent assessment backend",
		Long: `dtp serves the candidate profile, AI interview and competency assessment API.

Settings come from the settings file in the data directory, a .env file in the
working directory and DTP_* environment variables, in increasing priority.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("load .env: %w", err)
			}
			return nil
		},
	}
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newServeCommand(&debug))
	cmd.AddCommand(newMigrateCommand(&debug))
	cmd.AddCommand(newSeedCommand(&debug))
	return cmd
}

// loadConfig prepares the data directory, reads settings and configures logging.
func loadConfig(debug bool) *config.Config {
	if err := config.EnsureAll(); err != nil {
		log.Warn().Err(err).Msg("Failed to ensure data directory")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	cfg.Version = Version
	setupLogging(cfg, debug)
	return cfg
}

func setupLogging(cfg *config.Config, debug bool) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

func openStore(cfg *config.Config) (*gormdb.Store, error) {
	level := gormdb.ParseLogLevel(cfg.DBLogLevel)
	if zerolog.GlobalLevel() > zerolog.DebugLevel && level > logger.Warn {
		level = logger.Warn
	}
	store, err := gormdb.NewStore(gormdb.Config{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DatabaseURL,
		Path:     cfg.DBPath,
		MaxConns: cfg.MaxConns,
		LogLevel: level,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Info().Str("driver", store.Driver()).Msg("Database ready")
	return store, nil
}
