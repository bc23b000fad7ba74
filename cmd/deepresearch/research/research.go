// Package researchcmder provides the research command, the main entry
// point: submit a query, stream the agent's progress, and archive the
// finished session.
package researchcmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/cmd/deepresearch/dbpath"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/client"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/cliui"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/config"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/credentials"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/dotdir"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/history"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/logger"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/session"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/stream"
)

const researchLongDesc string = `Run a research session.

Submits the query to the research backend and streams the agent's progress:
stage transitions, research steps, API calls, and discovered sources, ending
with the final report rendered as markdown.

By default a live TUI shows the activity feed, sources, and report in tabs;
--plain streams plain text instead (and is used automatically when stdout is
not a terminal). Ctrl+C stops the run and keeps everything received so far.

Finished sessions are archived to the local history database and become the
default target of 'deepresearch export'.

Examples:
  deepresearch research "What changed in EU AI regulation this year?"
  deepresearch research -m claude-sonnet-4 "Compare RISC-V vector extensions"
  deepresearch research --plain -o report.md "History of the QUIC protocol"`

const researchShortDesc string = "Run a research session"

type researchCommander struct {
	apiTarget      string
	model          string
	timeout        uint
	logCapacity    uint
	transcriptTail uint
	sqlitePath     string
	plain          bool
	noArchive      bool
	output         string
	debug          bool
	configDir      string

	logger *zap.Logger
}

func NewResearchCmd() *cobra.Command {
	cmder := &researchCommander{}
	var v *viper.Viper

	cmd := &cobra.Command{
		Use:   "research <query>",
		Short: researchShortDesc,
		Long:  researchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			var err error
			v, err = config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagAPITarget,
				config.FlagModel,
				config.FlagTimeout,
				config.FlagLogCapacity,
				config.FlagTranscriptTail,
				config.FlagSQLite,
			})

			cmder.apiTarget = v.GetString("client.api_target")
			cmder.model = v.GetString("research.model")
			cmder.timeout = v.GetUint("research.timeout_seconds")
			cmder.logCapacity = v.GetUint("stream.log_capacity")
			cmder.transcriptTail = v.GetUint("stream.transcript_tail")
			cmder.sqlitePath = v.GetString("history.sqlite_path")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(args[0])
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddUintFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddUintFlag(cmd, config.Flags, config.FlagLogCapacity, &cmder.logCapacity)
	config.AddUintFlag(cmd, config.Flags, config.FlagTranscriptTail, &cmder.transcriptTail)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Stream plain text instead of the live TUI")
	cmd.Flags().BoolVar(&cmder.noArchive, "no-archive", false, "Skip archiving the session to history")
	cmd.Flags().StringVarP(&cmder.output, "output", "o", "", "Also write the final report to a file")

	return cmd
}

func (c *researchCommander) run(query string) error {
	// Logs go to stderr; debug only, so the stream output stays clean.
	c.logger = logger.NewLoggerWithWriters(c.debug, os.Stderr)
	defer func() { _ = c.logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if c.timeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, time.Duration(c.timeout)*time.Second)
		defer timeoutCancel()
	}

	apiKey, err := c.resolveKey()
	if err != nil {
		return err
	}

	cl := client.New(c.apiTarget, client.WithLogger(c.logger))

	reducerOpts := []stream.Option{
		stream.WithLogCapacity(int(c.logCapacity)),
		stream.WithTranscriptTail(int(c.transcriptTail)),
	}

	var runErr error
	var sess *session.Session
	if c.usePlain() {
		sess, runErr = c.runPlain(ctx, cl, query, apiKey, reducerOpts)
	} else {
		sess, runErr = c.runTUI(ctx, cancel, cl, query, apiKey, reducerOpts)
	}

	result := sess.Result()

	if !c.noArchive {
		if err := c.archive(result); err != nil {
			c.logger.Warn("archiving session failed", zap.Error(err))
		}
	}

	c.printOutcome(result)

	if c.output != "" && result.Report != "" {
		if err := os.WriteFile(c.output, []byte(result.Report), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("  %s Wrote report to %s\n\n", cliui.SuccessMark, cliui.ValueStyle.Render(c.output))
	}

	if runErr != nil {
		return runErr
	}
	if result.Status == stream.StatusFailed {
		if result.Retryable {
			return fmt.Errorf("research failed (transient, try again): %s", result.Error)
		}
		return fmt.Errorf("research failed: %s", result.Error)
	}
	return nil
}

// usePlain decides the renderer: the --plain flag, or stdout not being a
// terminal (pipes, redirects, CI).
func (c *researchCommander) usePlain() bool {
	if c.plain {
		return true
	}
	fi, err := os.Stdout.Stat()
	if err != nil {
		return true
	}
	return (fi.Mode() & os.ModeCharDevice) == 0
}

// resolveKey finds the API key for the selected model's provider. A missing
// key is not an error; the backend may hold its own credentials.
func (c *researchCommander) resolveKey() (string, error) {
	mgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return "", fmt.Errorf("loading credentials: %w", err)
	}

	key, err := mgr.KeyForModel(c.model)
	if err != nil {
		return "", err
	}

	if key == "" {
		if provider := credentials.ProviderForModel(c.model); provider != "" {
			if envKey := os.Getenv(credentials.EnvVarForProvider(provider)); envKey != "" {
				return envKey, nil
			}
		}
	}

	return key, nil
}

func (c *researchCommander) runPlain(ctx context.Context, cl *client.Client, query, apiKey string, reducerOpts []stream.Option) (*session.Session, error) {
	renderer := newPlainRenderer(os.Stdout, c.model)

	sess := session.New(query, c.model,
		session.WithLogger(c.logger),
		session.WithReducerOptions(reducerOpts...),
		session.WithUpdateFunc(renderer.Update),
	)

	renderer.Start(query)
	err := sess.Run(ctx, cl, apiKey)
	return sess, err
}

func (c *researchCommander) archive(result session.Result) error {
	dbPath, err := dbpath.Resolve(c.sqlitePath, c.configDir)
	if err != nil {
		return err
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	// Archiving happens after the run; it must not be cancelled by the
	// same Ctrl+C that stopped the session.
	saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer saveCancel()

	if err := store.Save(saveCtx, result); err != nil {
		return err
	}

	return dotdir.NewManager().SaveLastRun(&dotdir.LastRun{
		SessionID:  result.ID,
		Query:      result.Query,
		Model:      result.Model,
		Status:     string(result.Status),
		FinishedAt: time.Now(),
	}, c.configDir)
}

// printOutcome renders the terminal state: the report for completed runs,
// the error for failed ones, and whatever was folded for stopped ones.
func (c *researchCommander) printOutcome(result session.Result) {
	fmt.Println()

	switch result.Status {
	case stream.StatusCompleted:
		rendered, err := cliui.RenderMarkdown(result.Report)
		if err != nil {
			fmt.Println(result.Report)
		} else {
			fmt.Print(rendered)
		}

		if len(result.Sources) > 0 {
			fmt.Printf("\n  %s\n\n", cliui.HeaderStyle.Render("Sources"))
			for i, src := range result.Sources {
				fmt.Printf("  %2d. %s\n", i+1, cliui.SourceStyle.Render(src))
			}
		}

	case stream.StatusFailed:
		fmt.Printf("  %s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(result.Error))
		if result.Retryable {
			fmt.Printf("  %s This looks transient; try the same query again.\n",
				cliui.WarnStyle.Render("!"))
		}

	case stream.StatusStopped:
		fmt.Printf("  %s Stopped. Keeping %d events received so far.\n",
			cliui.WarnStyle.Render("●"), result.Events)
		if result.Report != "" {
			fmt.Printf("  %s A partial report candidate was archived.\n", cliui.DimStyle.Render("●"))
		}
	}

	fmt.Printf("\n  %s %s in %s  %s\n\n",
		cliui.Mark(statusErr(result.Status)),
		cliui.NameStyle.Render(result.Model),
		cliui.FormatDuration(result.Duration),
		cliui.DimStyle.Render(fmt.Sprintf("(%d events, %d sources, session %s)",
			result.Events, len(result.Sources), result.ID)),
	)
}

func statusErr(status stream.Status) error {
	if status == stream.StatusCompleted {
		return nil
	}
	return errors.New(string(status))
}
