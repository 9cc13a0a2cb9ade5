package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"avaportal/internal/app"
	"avaportal/internal/documents"
	"avaportal/internal/formatting"
	pkgstrings "avaportal/pkg/strings"

	"github.com/spf13/cobra"
)

var (
	documentsFolder       string
	documentsOutputFormat string
	documentsNoColor      bool
)

// documentsCmd groups the read-only document store commands.
var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Inspect the product knowledge documents",
	Long: `Read the product knowledge store the portal is configured with, without
starting the server. The folder defaults to storage.tenantFolder
(TENANT_NAME); pass --folder with a tenant id to look at another tenant.

Examples:
  avaportal documents list --folder 3f2c9a
  avaportal documents show pricing.txt --folder 3f2c9a`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the documents in a folder",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print one document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

func init() {
	rootCmd.AddCommand(documentsCmd)
	documentsCmd.AddCommand(documentsListCmd, documentsShowCmd)

	documentsCmd.PersistentFlags().StringVar(&documentsFolder, "folder", "", "Folder (tenant id) to read, defaults to storage.tenantFolder")
	documentsListCmd.Flags().StringVarP(&documentsOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	documentsListCmd.Flags().BoolVar(&documentsNoColor, "no-color", false, "Disable colored output")
}

func runDocumentsList(cmd *cobra.Command, args []string) error {
	if !formatting.ValidFormat(documentsOutputFormat) {
		return fmt.Errorf("unknown output format %q, expected one of %v", documentsOutputFormat, formatting.Formats)
	}

	store, folder, err := openDocuments()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	names, err := store.List(ctx, folder)
	if err != nil {
		return fmt.Errorf("failed to list documents in %q: %w", folder, err)
	}

	t := formatting.Table{
		Headers: []string{"Name", "Size", "Preview"},
		Empty:   fmt.Sprintf("No documents in %q", folder),
	}
	for _, name := range names {
		text, err := store.Read(ctx, folder, name)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		t.Rows = append(t.Rows, []string{name, strconv.Itoa(len(text)), pkgstrings.Preview(text, pkgstrings.DefaultPreviewLen)})
	}

	return formatting.NewFormatter(formatting.Options{
		Format: formatting.OutputFormat(documentsOutputFormat),
		Color:  !documentsNoColor,
	}, cmd.OutOrStdout()).Format(t)
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	store, folder, err := openDocuments()
	if err != nil {
		return err
	}

	name := documents.NormalizeName(args[0])
	text, err := store.Read(commandContext(cmd), folder, name)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return fmt.Errorf("document %s not found in %q", name, folder)
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}

// openDocuments opens the configured store and picks the folder to read.
func openDocuments() (documents.Store, string, error) {
	cfg, err := loadPortalConfig()
	if err != nil {
		return nil, "", err
	}
	store, err := app.NewDocumentStore(cfg.Storage)
	if err != nil {
		return nil, "", fmt.Errorf("document store unavailable: %w", err)
	}
	folder := documentsFolder
	if folder == "" {
		folder = cfg.Storage.TenantFolder
	}
	return store, folder, nil
}
