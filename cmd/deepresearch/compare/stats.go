package comparecmder

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/client"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/cliui"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/config"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/logger"
)

const statsLongDesc string = `Show the backend's aggregated comparison statistics.

Fetches the cross-run metrics the backend has accumulated from submitted
comparison runs: per-model run counts, completion and failure totals, and
average duration and source yield.

Examples:
  deepresearch compare stats
  deepresearch compare stats --api-target http://localhost:8090`

func newStatsCmd() *cobra.Command {
	var apiTarget string
	var debug bool
	var v *viper.Viper

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the backend's aggregated comparison statistics",
		Long:  statsLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			var err error
			v, err = config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPITarget})
			apiTarget = v.GetString("client.api_target")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			debug, _ = cmd.Flags().GetBool("debug")
			return runStats(apiTarget, debug)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)

	return cmd
}

func runStats(apiTarget string, debug bool) error {
	log := logger.NewLogger(debug)
	defer func() { _ = log.Sync() }()

	cl := client.New(apiTarget, client.WithLogger(log))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := cl.ComparisonStats(ctx)
	if err != nil {
		return err
	}

	if stats.TotalRuns == 0 || len(stats.Models) == 0 {
		fmt.Printf("\n  %s No comparison runs recorded yet. Run 'deepresearch compare --submit'.\n\n",
			cliui.DimStyle.Render("●"))
		return nil
	}

	models := make([]string, 0, len(stats.Models))
	for model := range stats.Models {
		models = append(models, model)
	}
	sort.Strings(models)

	fmt.Printf("\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Comparison stats"),
		cliui.DimStyle.Render(fmt.Sprintf("(%d runs)", stats.TotalRuns)),
	)
	fmt.Printf("  %s\n", cliui.DimStyle.Render("model              runs  completed  failed  avg duration  avg sources"))
	for _, model := range models {
		ms := stats.Models[model]
		fmt.Printf("  %-18s %4d  %9d  %6d  %11.1fs  %11.1f\n",
			truncate(model, 18), ms.Runs, ms.Completed, ms.Failed, ms.AvgDurationSecs, ms.AvgSources)
	}
	fmt.Println()

	return nil
}
