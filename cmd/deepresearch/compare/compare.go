// Package comparecmder provides the compare command for racing several
// models on one query.
package comparecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/cmd/deepresearch/dbpath"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/client"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/cliui"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/compare"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/config"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/credentials"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/history"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/logger"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/stream"
)

const compareLongDesc string = `Race several models on one research query.

Each model gets its own session against the backend; all run concurrently
and one model failing or timing out never affects the others. When every
session is terminal, a summary table shows status, duration, sources, and
report length per model, and every session is archived to history.

With --submit, the finished run is also reported to the backend's
comparison endpoint so it can aggregate cross-run statistics; see
'deepresearch compare stats'.

Examples:
  deepresearch compare "What is the state of solid-state batteries?"
  deepresearch compare --models gpt-4o,claude-sonnet-4 "your question"
  deepresearch compare --timeout 300 --submit "your question"`

const compareShortDesc string = "Race several models on one research query"

type compareCommander struct {
	apiTarget  string
	models     []string
	timeout    uint
	sqlitePath string
	submit     bool
	noArchive  bool
	debug      bool
	configDir  string

	logger *zap.Logger
}

func NewCompareCmd() *cobra.Command {
	cmder := &compareCommander{}
	var v *viper.Viper
	var modelsFlag string

	cmd := &cobra.Command{
		Use:   "compare <query>",
		Short: compareShortDesc,
		Long:  compareLongDesc,
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
				config.FlagTimeout,
				config.FlagSQLite,
			})

			cmder.apiTarget = v.GetString("client.api_target")
			cmder.timeout = v.GetUint("research.timeout_seconds")
			cmder.sqlitePath = v.GetString("history.sqlite_path")

			if cmd.Flags().Changed("models") {
				cmder.models = splitModels(modelsFlag)
			} else {
				cmder.models = v.GetStringSlice("research.models")
			}
			if len(cmder.models) < 2 {
				return fmt.Errorf("comparison needs at least two models; got %v", cmder.models)
			}
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
	config.AddUintFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	cmd.Flags().StringVar(&modelsFlag, "models", "", "Comma-separated models to race")
	cmd.Flags().BoolVar(&cmder.submit, "submit", false, "Submit the finished run to the backend")
	cmd.Flags().BoolVar(&cmder.noArchive, "no-archive", false, "Skip archiving sessions to history")

	cmd.AddCommand(newStatsCmd())

	return cmd
}

func (c *compareCommander) run(query string) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	keyMgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	cl := client.New(c.apiTarget, client.WithLogger(c.logger))
	runner := compare.NewRunner(cl,
		compare.WithLogger(c.logger),
		compare.WithTimeout(time.Duration(c.timeout)*time.Second),
		compare.WithKeyFunc(func(model string) string {
			key, err := keyMgr.KeyForModel(model)
			if err != nil {
				c.logger.Warn("resolving key failed", zap.String("model", model), zap.Error(err))
				return ""
			}
			return key
		}),
	)

	fmt.Printf("\n  Racing %s on one query…\n\n", cliui.NameStyle.Render(strings.Join(c.models, ", ")))

	var summary *compare.Summary
	err = cliui.Step(os.Stdout, fmt.Sprintf("running %d sessions", len(c.models)), func() error {
		summary = runner.Run(ctx, query, c.models)
		if summary.Completed == 0 {
			return fmt.Errorf("no model completed")
		}
		return nil
	})
	// A fully failed run still has a summary worth printing.
	printSummary(summary)

	if !c.noArchive {
		if archiveErr := c.archive(summary); archiveErr != nil {
			c.logger.Warn("archiving comparison failed", zap.Error(archiveErr))
		}
	}

	if c.submit {
		submitCtx, submitCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer submitCancel()
		if submitErr := cl.SubmitComparison(submitCtx, summary.CompareRequest()); submitErr != nil {
			c.logger.Warn("submitting comparison failed", zap.Error(submitErr))
			fmt.Printf("  %s Could not submit comparison: %v\n\n", cliui.WarnStyle.Render("!"), submitErr)
		} else {
			fmt.Printf("  %s Submitted comparison to backend.\n\n", cliui.SuccessMark)
		}
	}

	return err
}

func (c *compareCommander) archive(summary *compare.Summary) error {
	dbPath, err := dbpath.Resolve(c.sqlitePath, c.configDir)
	if err != nil {
		return err
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, res := range summary.Results {
		if err := store.Save(ctx, res); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(summary *compare.Summary) {
	fmt.Println()
	fmt.Printf("  %s\n", cliui.DimStyle.Render("model              status     duration   sources  report"))
	for _, res := range summary.Results {
		marker := " "
		if res.Model == summary.Fastest {
			marker = "★"
		}
		fmt.Printf("  %-18s %s  %9s  %7d  %6d  %s\n",
			truncate(res.Model, 18),
			renderStatus(res.Status),
			cliui.FormatDuration(res.Duration),
			len(res.Sources),
			len(res.Report),
			cliui.WarnStyle.Render(marker),
		)
	}
	fmt.Println()
	fmt.Printf("  %s %d completed, %d failed, %d stopped in %s\n\n",
		cliui.DimStyle.Render("●"),
		summary.Completed, summary.Failed, summary.Stopped,
		cliui.FormatDuration(summary.Elapsed),
	)
}

func renderStatus(status stream.Status) string {
	padded := fmt.Sprintf("%-9s", status)
	switch status {
	case stream.StatusCompleted:
		return cliui.SuccessMark + " " + padded
	case stream.StatusFailed:
		return cliui.FailMark + " " + padded
	default:
		return cliui.WarnStyle.Render("■") + " " + padded
	}
}

func splitModels(v string) []string {
	parts := strings.Split(v, ",")
	models := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			models = append(models, p)
		}
	}
	return models
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	if limit <= 3 {
		return s[:limit]
	}
	return s[:limit-3] + "..."
}
