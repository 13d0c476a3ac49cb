package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gitlab.com/katello-tools/errata-tracker/errata"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:               "errata-import",
	Short:             "Import advisories into the errata tracker",
	PersistentPreRunE: setupApp,
}

var rootFlags = struct {
	configPath string
	debug      bool
	debugSQL   bool
	migrate    bool
}{}

var _app app

type app struct {
	DB     *gorm.DB
	Store  *errata.Store
	Config errata.Config
}

func App() app {
	return _app
}

func main() {
	err := run()
	if err != nil {
		fmt.Printf("FATAL: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	return rootCmd.Execute()
}

func setupApp(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if rootFlags.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	config, err := errata.ParseConfigFromFile(rootFlags.configPath)
	if err != nil {
		return fmt.Errorf("error reading '%s': %w", rootFlags.configPath, err)
	}
	_app.Config = config

	db, err := errata.OpenDB(config.DBPath, rootFlags.debugSQL)
	if err != nil {
		return err
	}
	_app.DB = db
	_app.Store = errata.NewStore(db)

	if rootFlags.migrate {
		return errata.Migrate(db)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootFlags.configPath, "config", "c", "config/application.toml", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.debugSQL, "debug-sql", false, "Log SQL statements")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.migrate, "migrate", false, "Apply database migrations before importing")
}
