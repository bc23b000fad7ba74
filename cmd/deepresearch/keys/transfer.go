package keyscmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/cliui"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/credentials"
)

const importLongDesc string = `Import API keys into the credential store.

With --from-env, keys are read from the well-known environment variables
(OPENAI_API_KEY, ANTHROPIC_API_KEY, GOOGLE_API_KEY, DEEPSEEK_API_KEY).
With a file argument, keys are merged from another credentials.toml.
Imported keys overwrite existing ones for the same provider.

Examples:
  deepresearch keys import --from-env
  deepresearch keys import keys.toml`

func newImportCmd() *cobra.Command {
	var fromEnv bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import API keys from the environment or a file",
		Long:  importLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			mgr, err := credentials.NewManager(configDir)
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}

			var imported []string
			switch {
			case fromEnv:
				imported, err = mgr.ImportFromEnv()
			case len(args) == 1:
				imported, err = mgr.ImportFile(args[0])
			default:
				return fmt.Errorf("provide a credentials file or --from-env")
			}
			if err != nil {
				return err
			}

			if len(imported) == 0 {
				fmt.Printf("\n  %s No keys found to import.\n\n", cliui.DimStyle.Render("●"))
				return nil
			}

			fmt.Printf("\n  %s Imported keys for %s\n\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(strings.Join(imported, ", ")),
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromEnv, "from-env", false, "Import keys from environment variables")

	return cmd
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export the credential store to a file",
		Long: `Export the credential store to a TOML file with 0600 permissions,
for moving keys to another machine.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			mgr, err := credentials.NewManager(configDir)
			if err != nil {
				return fmt.Errorf("loading credentials: %w", err)
			}

			if err := mgr.ExportFile(args[0]); err != nil {
				return err
			}

			fmt.Printf("\n  %s Exported keys to %s\n\n",
				cliui.SuccessMark,
				cliui.ValueStyle.Render(args[0]),
			)
			return nil
		},
	}
}
