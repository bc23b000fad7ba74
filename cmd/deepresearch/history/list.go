package historycmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/cmd/deepresearch/dbpath"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/cliui"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/history"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/utils"
)

const listLongDesc string = `List archived research sessions, newest first.

Examples:
  deepresearch history list
  deepresearch history list --limit 10`

func newListCmd() *cobra.Command {
	var limit int
	var sqlitePath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived research sessions",
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runHistoryList(sqlitePath, configDir, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum sessions to list")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Path to the session history SQLite database")

	return cmd
}

func runHistoryList(sqlitePath, configDir string, limit int) error {
	dbPath, err := dbpath.Resolve(sqlitePath, configDir)
	if err != nil {
		return err
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(cmdContext(), limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Printf("\n  %s No archived sessions. Run 'deepresearch research <query>' first.\n\n",
			cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Println()
	fmt.Printf("  %s\n", cliui.DimStyle.Render("started           status     model            sources  id / query"))
	for _, rec := range records {
		fmt.Printf("  %s  %s  %-15s  %7d  %s\n",
			rec.Started.Local().Format("2006-01-02 15:04"),
			statusStyle(rec.Status).Render(fmt.Sprintf("%-9s", rec.Status)),
			utils.Truncate(rec.Model, 15),
			len(rec.Sources),
			cliui.DimStyle.Render(utils.Truncate(rec.ID, 8))+"  "+utils.Truncate(rec.Query, 48),
		)
	}
	fmt.Println()

	return nil
}
