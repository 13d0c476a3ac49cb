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
	Use:               "errata-cli",
	Short:             "Query and maintain the errata database",
	PersistentPreRunE: setupApp,
}

var rootFlags = struct {
	configPath string
	debug      bool
	debugSQL   bool
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
	var err error
	_app, err = initApp()
	return err
}

func initApp() (app, error) {
	var app app
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
		return app, fmt.Errorf("error reading '%s': %w", rootFlags.configPath, err)
	}
	app.Config = config
	db, err := errata.OpenDB(config.DBPath, rootFlags.debugSQL)
	if err != nil {
		return app, err
	}
	app.DB = db
	app.Store = errata.NewStore(db)

	return app, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootFlags.configPath, "config", "c", "config/application.toml", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.debugSQL, "debug-sql", false, "Log SQL statements")
}
