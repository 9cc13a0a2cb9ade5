package cmd

import (
	"context"
	"fmt"

	"avaportal/internal/app"

	"github.com/spf13/cobra"
)

// serveListen overrides server.listenAddr.
var serveListen string

// serveCmd defines the serve command structure.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portal web server",
	Long: `Starts the avaportal web server and blocks until interrupted.

Configuration is layered, later sources winning:
  1. built-in defaults
  2. the YAML file given with --config
  3. the dotenv file given with --env-file (default .env, optional)
  4. the process environment (KINDE_*, BACKEND_*, AZURE_*, AVAPORTAL_*)

Invalid configuration does not stop the server: every page shows the
configuration error until it is fixed. Run 'avaportal check' to verify the
configuration and connectivity before deploying.

On SIGINT or SIGTERM the server stops accepting connections and drains
in-flight requests for server.shutdownTimeout.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(debug, configFile, envFile, serveListen)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	application.SetVersion(GetVersion())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address, overrides server.listenAddr (e.g. :8501)")
}
