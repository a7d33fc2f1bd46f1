package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillstack/pkg/logger"
	"github.com/jingkaihe/skillstack/pkg/presenter"
	"github.com/jingkaihe/skillstack/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog and validation over a JSON API",
	Long: `Start a local HTTP server exposing the loaded matrix to browser-based skill
pickers:

  GET  /api/categories[?selected=a,b&expert=true]
  GET  /api/categories/{id}/skills[?selected=a,b&expert=true]
  GET  /api/skills/{id}
  GET  /api/stacks
  POST /api/validate   {"skills": [...], "stack": "..."}

The server listens on http://localhost:8080 by default.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		env, err := loadEnv(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load matrix")
			os.Exit(1)
		}
		config := &server.Config{Host: env.cfg.Serve.Host, Port: env.cfg.Serve.Port}
		if err := validateServeConfig(ctx, config); err != nil {
			presenter.Error(err, "Invalid server configuration")
			os.Exit(1)
		}

		mappings, err := loadMappings(env.cfg)
		if err != nil {
			presenter.Error(err, "Failed to load agent mappings")
			os.Exit(1)
		}

		srv, err := server.New(config, env.resolver, mappings)
		if err != nil {
			presenter.Error(err, "Failed to create server")
			os.Exit(1)
		}

		ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer cancel()

		logger.G(ctx).WithFields(map[string]any{
			"host":   config.Host,
			"port":   config.Port,
			"skills": len(env.matrix().Skills),
		}).Info("starting API server")
		presenter.Success(fmt.Sprintf("Serving %d skills on http://%s:%d", len(env.matrix().Skills), config.Host, config.Port))
		presenter.Info("Press Ctrl+C to stop the server")

		if err := srv.Start(ctx); err != nil {
			presenter.Error(err, "Server failed")
			os.Exit(1)
		}
		presenter.Info("Server stopped")
	},
}

func init() {
	serveCmd.Flags().String("host", "localhost", "Host to bind the server to")
	serveCmd.Flags().Int("port", 8080, "Port to bind the server to")
	viper.BindPFlag("serve.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("serve.port", serveCmd.Flags().Lookup("port"))
}

// validateServeConfig rejects hosts that cannot be bound and warns about
// privileged ports
func validateServeConfig(ctx context.Context, config *server.Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Host != "localhost" && config.Host != "0.0.0.0" && net.ParseIP(config.Host) == nil {
		if strings.ContainsAny(config.Host, " :") {
			return errors.Errorf("invalid host: %s", config.Host)
		}
	}
	if config.Port < 1024 {
		logger.G(ctx).WithField("port", config.Port).Warn("using privileged port (< 1024) may require elevated permissions")
	}
	return nil
}
