// Package cli implements the briefcast command line.
//
// Commands talk to the driving ports held in package variables. They are
// assembled from configuration on first use, or replaced by tests.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/briefcast/internal/app"
	"github.com/custodia-labs/briefcast/internal/config"
	"github.com/custodia-labs/briefcast/internal/core/ports/driving"
	"github.com/custodia-labs/briefcast/internal/logger"
)

var version = "dev"

var (
	cfgFile string
	verbose bool
	userID  string
)

// Driving ports used by the commands.
var (
	pipelineService  driving.BriefingPipeline
	briefingService  driving.BriefingService
	connectorService driving.ConnectorRegistry
	interestService  driving.InterestService
	settingsService  driving.SettingsService
	sessionIssuer    SessionIssuer
)

// application is the assembled App when services were built from config.
var application *app.App

var rootCmd = &cobra.Command{
	Use:   "briefcast",
	Short: "Personalised daily audio briefings",
	Long: `Briefcast gathers mail, calendar, documents, videos, repositories and trends
from connected providers, writes a two-voice narration script and renders it
to audio.

Run "briefcast serve" to start the HTTP API, or use the commands below to work
with briefings directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (.toml or .yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "user id (defaults to the saved profile or \"local\")")
}

// SetVersion sets the version reported by the version command and telemetry.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// loadConfig reads the configuration selected by --config and applies
// logging settings from it.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if err := logger.SetFormat(logger.Format(cfg.Telemetry.LogFormat)); err != nil {
		return cfg, err
	}
	if cfg.Telemetry.LogLevel == "debug" {
		logger.SetVerbose(true)
	}
	return cfg, nil
}

// ensureServices builds the services from configuration unless they were
// already set.
func ensureServices(ctx context.Context) error {
	if pipelineService != nil || briefingService != nil {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, version)
	if err != nil {
		return err
	}
	useApp(a)
	return nil
}

func useApp(a *app.App) {
	application = a
	pipelineService = a.Pipeline
	briefingService = a.Briefings
	connectorService = a.Connectors
	interestService = a.Interests
	settingsService = a.Settings
	sessionIssuer = a.Sessions
}

func closeServices() {
	if application == nil {
		return
	}
	if err := application.Close(); err != nil {
		logger.Warn("shutdown: %v", err)
	}
	application = nil
}

// requireServices is a PreRunE for commands that need the local services.
func requireServices(cmd *cobra.Command, _ []string) error {
	return ensureServices(commandContext(cmd))
}

// currentUser resolves the user for a command: the --user flag, then the
// saved profile, then "local".
func currentUser() string {
	if userID != "" {
		return userID
	}
	if p, err := openProfile(); err == nil {
		if id := p.GetString(profileUserKey); id != "" {
			return id
		}
	}
	return "local"
}

var errNotConfigured = errors.New("service not configured")
