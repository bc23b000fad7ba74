// Package configcmder provides the config command for managing persistent
// deepresearch configuration stored in the .deepresearch/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent deepresearch configuration.

Configuration is stored as config.toml in the .deepresearch/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values.

Keys use dotted notation matching the TOML section structure:
  client.api_target,
  research.model, research.models, research.timeout_seconds,
  stream.log_capacity, stream.transcript_tail,
  history.sqlite_path,
  serve.listen, serve.fixture

Use subcommands to get, set, or list configuration values:
  deepresearch config set <key> <value>    Set a configuration value
  deepresearch config get <key>            Get a configuration value
  deepresearch config list                 List all configuration values

Examples:
  deepresearch config set client.api_target http://localhost:8000
  deepresearch config set research.model claude-sonnet-4
  deepresearch config get research.models
  deepresearch config list`

const configShortDesc string = "Manage persistent deepresearch configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
