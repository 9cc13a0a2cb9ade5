package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"avaportal/internal/app"
	"avaportal/internal/config"
	"avaportal/internal/formatting"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

// checkTimeout bounds all probes of one check run together.
const checkTimeout = 45 * time.Second

var (
	checkOutputFormat string
	checkQuiet        bool
	checkNoColor      bool
)

var errChecksFailed = errors.New("one or more checks failed")

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the configuration and every dependency of the portal",
	Long: `Validate the configuration and probe everything the portal depends on:

  configuration          required identity provider and backend settings
  storage configuration  Azure Blob or local directory settings
  backend                GET /api/health on the backend API
  identity provider      provider endpoints (OpenID discovery when enabled)
  session store          memory, or a PING to Redis
  document store         listing the configured tenant folder

Every probe runs even when an earlier one failed. The command exits with
status 1 when any probe failed.

Examples:
  avaportal check
  avaportal check --config portal.yaml -o json`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	checkCmd.Flags().BoolVarP(&checkQuiet, "quiet", "q", false, "Suppress non-essential output")
	checkCmd.Flags().BoolVar(&checkNoColor, "no-color", false, "Disable colored output")
}

func runCheck(cmd *cobra.Command, args []string) error {
	if !formatting.ValidFormat(checkOutputFormat) {
		return fmt.Errorf("unknown output format %q, expected one of %v", checkOutputFormat, formatting.Formats)
	}

	cfg, err := loadPortalConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), checkTimeout)
	defer cancel()

	var s *spinner.Spinner
	if !checkQuiet && checkOutputFormat == string(formatting.FormatTable) {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		s.Suffix = " Checking avaportal dependencies..."
		s.Start()
	}

	results := app.Check(ctx, cfg)

	if s != nil {
		s.Stop()
	}

	t := formatting.Table{Headers: []string{"Check", "Status", "Detail"}}
	for _, r := range results {
		status := formatting.StatusOK
		if !r.OK {
			status = formatting.StatusFailed
		}
		t.Rows = append(t.Rows, []string{r.Name, status, r.Detail})
	}

	f := formatting.NewFormatter(formatting.Options{
		Format: formatting.OutputFormat(checkOutputFormat),
		Quiet:  checkQuiet,
		Color:  !checkNoColor,
	}, cmd.OutOrStdout())
	if err := f.Format(t); err != nil {
		return err
	}

	if app.Failed(results) {
		return errChecksFailed
	}
	return nil
}

// loadPortalConfig reads the configuration named by the persistent flags.
func loadPortalConfig() (config.Config, error) {
	cfg, err := app.LoadPortalConfig(app.NewConfig(debug, configFile, envFile, ""))
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
