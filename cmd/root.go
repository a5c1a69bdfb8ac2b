// Package cmd holds the command line entry points: the API server and the
// maintenance commands that share its configuration.
package cmd

import (
	"fillop/config"
	"fillop/database"
	"fillop/logger"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var RootCommand = &cobra.Command{
	Use:   "fillop",
	Short: "Run the Fillop learning platform API",
	Run:   runServe,
}

func init() {
	RootCommand.AddCommand(serveCommand, migrateCommand, createAdminCommand)
}

// Execute runs the command named on the command line, serving by default.
func Execute() {
	if err := RootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, installs the logger and opens the database.
func bootstrap() (*config.Config, error) {
	config.LoadConfig()
	cfg := config.AppConfig

	if _, err := logger.Init(cfg.AppMode); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if err := database.ConnectDb(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
