package historycmder

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/cmd/deepresearch/dbpath"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/cliui"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/history"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/stream"
)

const showLongDesc string = `Show one archived session in full.

Without a session ID, shows the most recently started session. The report
is rendered as markdown; sources and the activity log follow.

Examples:
  deepresearch history show
  deepresearch history show 4f6b1c0a-...`

func newShowCmd() *cobra.Command {
	var sqlitePath string
	var raw bool

	cmd := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Show one archived session",
		Long:  showLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runHistoryShow(id, sqlitePath, configDir, raw)
		},
	}

	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Path to the session history SQLite database")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the report without markdown rendering")

	return cmd
}

func runHistoryShow(id, sqlitePath, configDir string, raw bool) error {
	dbPath, err := dbpath.Resolve(sqlitePath, configDir)
	if err != nil {
		return err
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var rec *history.Record
	if id == "" {
		rec, err = store.Latest(cmdContext())
	} else {
		rec, err = store.Get(cmdContext(), id)
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Query:"), rec.Query)
	fmt.Printf("  %s %s   %s %s   %s %s\n",
		cliui.KeyStyle.Render("Model:"), cliui.NameStyle.Render(rec.Model),
		cliui.KeyStyle.Render("Status:"), statusStyle(rec.Status).Render(string(rec.Status)),
		cliui.KeyStyle.Render("Duration:"), cliui.FormatDuration(rec.Duration),
	)
	fmt.Printf("  %s %s\n\n", cliui.KeyStyle.Render("Session:"), cliui.DimStyle.Render(rec.ID))

	if rec.Error != "" {
		fmt.Printf("  %s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(rec.Error))
	}

	if rec.Report != "" {
		if raw {
			fmt.Println(rec.Report)
		} else {
			rendered, err := cliui.RenderMarkdown(rec.Report)
			if err != nil {
				fmt.Println(rec.Report)
			} else {
				fmt.Print(rendered)
			}
		}
	}

	if len(rec.Sources) > 0 {
		fmt.Printf("\n  %s\n\n", cliui.HeaderStyle.Render("Sources"))
		for i, src := range rec.Sources {
			fmt.Printf("  %2d. %s\n", i+1, cliui.SourceStyle.Render(src))
		}
	}

	if len(rec.Log) > 0 {
		fmt.Printf("\n  %s\n\n", cliui.HeaderStyle.Render("API calls"))
		for _, line := range rec.Log {
			fmt.Printf("  %s\n", cliui.DimStyle.Render(line))
		}
	}
	fmt.Println()

	return nil
}

func statusStyle(status stream.Status) lipgloss.Style {
	switch status {
	case stream.StatusCompleted:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	case stream.StatusFailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	case stream.StatusStopped:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	default:
		return cliui.DimStyle
	}
}

func cmdContext() context.Context {
	return context.Background()
}
