// Package exportcmder provides the export command for rendering archived
// sessions as Markdown or HTML.
package exportcmder

import (
	"context"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/cmd/deepresearch/dbpath"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/cliui"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/dotdir"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/export"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/history"
)

const exportLongDesc string = `Export an archived session as Markdown or HTML.

Without a session ID, exports the last finished run (falling back to the
most recent archived session). The document contains the report, sources,
and the transcript and API-call appendices.

Examples:
  deepresearch export
  deepresearch export -o report.md
  deepresearch export --format html -o report.html
  deepresearch export --clipboard
  deepresearch export 4f6b1c0a-... -o report.md`

const exportShortDesc string = "Export an archived session as Markdown or HTML"

type exportCommander struct {
	format     string
	output     string
	toClip     bool
	sqlitePath string
}

func NewExportCmd() *cobra.Command {
	cmder := &exportCommander{}

	cmd := &cobra.Command{
		Use:   "export [session-id]",
		Short: exportShortDesc,
		Long:  exportLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return cmder.run(id, configDir)
		},
	}

	cmd.Flags().StringVarP(&cmder.format, "format", "f", "markdown", "Export format (markdown, html)")
	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "Write the document to a file instead of stdout")
	cmd.Flags().BoolVar(&cmder.toClip, "clipboard", false, "Copy the document to the system clipboard")
	cmd.Flags().StringVar(&cmder.sqlitePath, "sqlite", "", "Path to the session history SQLite database")

	return cmd
}

func (c *exportCommander) run(id, configDir string) error {
	format, err := export.ParseFormat(c.format)
	if err != nil {
		return err
	}

	dbPath, err := dbpath.Resolve(c.sqlitePath, configDir)
	if err != nil {
		return err
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	rec, err := c.lookup(ctx, store, id, configDir)
	if err != nil {
		return err
	}

	doc, err := export.Render(rec, format)
	if err != nil {
		return err
	}

	if c.toClip {
		if err := clipboard.WriteAll(doc); err != nil {
			return fmt.Errorf("copying to clipboard: %w", err)
		}
		fmt.Printf("\n  %s Copied %s export to clipboard %s\n\n",
			cliui.SuccessMark,
			string(format),
			cliui.DimStyle.Render("(session "+rec.ID+")"),
		)
		return nil
	}

	if c.output != "" {
		if err := os.WriteFile(c.output, []byte(doc), 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Printf("\n  %s Wrote %s %s\n\n",
			cliui.SuccessMark,
			cliui.ValueStyle.Render(c.output),
			cliui.DimStyle.Render("(session "+rec.ID+")"),
		)
		return nil
	}

	fmt.Print(doc)
	return nil
}

// lookup finds the record to export: an explicit ID, then the last-run
// pointer, then the newest archived session.
func (c *exportCommander) lookup(ctx context.Context, store *history.Store, id, configDir string) (*history.Record, error) {
	if id != "" {
		return store.Get(ctx, id)
	}

	lastRun, err := dotdir.NewManager().LoadLastRun(configDir)
	if err != nil {
		return nil, err
	}
	if lastRun != nil {
		rec, err := store.Get(ctx, lastRun.SessionID)
		if err == nil {
			return rec, nil
		}
		// The pointer can outlive the archive row; fall through to latest.
	}

	return store.Latest(ctx)
}
