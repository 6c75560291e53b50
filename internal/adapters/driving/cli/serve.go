package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/briefcast/internal/adapters/driving/api"
	"github.com/custodia-labs/briefcast/internal/app"
	"github.com/custodia-labs/briefcast/internal/config"
	"github.com/custodia-labs/briefcast/internal/logger"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the HTTP API: briefing generation with a server-sent event stream,
briefing history and edits, provider connections, settings, health probes
and Prometheus metrics.

Clients authenticate with a bearer token issued by "briefcast token".`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides http.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.HTTP.Port = servePort
	}
	if !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := app.New(ctx, cfg, version)
	if err != nil {
		return err
	}
	useApp(a)
	a.WatchPrompts(ctx)

	server := api.NewServer(api.Deps{
		Pipeline:   a.Pipeline,
		Briefings:  a.Briefings,
		Connectors: a.Connectors,
		Interests:  a.Interests,
		Settings:   a.Settings,
		Verifier:   a.Sessions,
		Metrics:    a.MetricsHandler(),
		Ready:      a.Ready,
		MediaDir:   a.MediaDir,
	}, api.Config{
		Addr:            cfg.HTTP.Addr(),
		ShutdownTimeout: config.Millis(cfg.HTTP.ShutdownTimeoutMS),
		Heartbeat:       config.Millis(cfg.HTTP.HeartbeatMS),
	})

	logger.Info("briefcast %s listening on %s", version, cfg.HTTP.Addr())
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
