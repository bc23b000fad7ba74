// Package historycmder provides the history command for browsing archived
// research sessions.
package historycmder

import (
	"github.com/spf13/cobra"
)

const historyLongDesc string = `Browse archived research sessions.

Every finished session (completed, failed, or stopped) is archived to a
local SQLite database, by default history.db in the .deepresearch/
directory. Use subcommands to list sessions or show one in full:

  deepresearch history list            List archived sessions
  deepresearch history show [id]       Show one session (default: latest)

Examples:
  deepresearch history list
  deepresearch history list --limit 10
  deepresearch history show 4f6b1c0a-...`

const historyShortDesc string = "Browse archived research sessions"

func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())

	return cmd
}
