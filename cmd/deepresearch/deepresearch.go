// Package deepresearchcmder
package deepresearchcmder

import (
	"github.com/spf13/cobra"

	comparecmder "github.com/ShenSeanChen/yt-DeepResearch-Frontend/cmd/deepresearch/compare"
	configcmder "github.com/ShenSeanChen/yt-DeepResearch-Frontend/cmd/deepresearch/config"
	exportcmder "github.com/ShenSeanChen/yt-DeepResearch-Frontend/cmd/deepresearch/export"
	historycmder "github.com/ShenSeanChen/yt-DeepResearch-Frontend/cmd/deepresearch/history"
	keyscmder "github.com/ShenSeanChen/yt-DeepResearch-Frontend/cmd/deepresearch/keys"
	researchcmder "github.com/ShenSeanChen/yt-DeepResearch-Frontend/cmd/deepresearch/research"
	servecmder "github.com/ShenSeanChen/yt-DeepResearch-Frontend/cmd/deepresearch/serve"
	versioncmder "github.com/ShenSeanChen/yt-DeepResearch-Frontend/cmd/version"
)

const deepResearchLongDesc string = `Deep Research is a terminal client for multi-agent research backends.

Submit a query, watch the agent stream its progress live, and keep every
finished session in a local archive:
  deepresearch research "your question"   Run a research session
  deepresearch compare "your question"    Race several models on one query
  deepresearch history list               Browse archived sessions
  deepresearch export                     Export the latest report`

const deepResearchShortDesc string = "Deep Research - terminal client for research agents"

func NewDeepResearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deepresearch",
		Short: deepResearchShortDesc,
		Long:  deepResearchLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .deepresearch/ directory")

	// Add subcommands
	cmd.AddCommand(researchcmder.NewResearchCmd())
	cmd.AddCommand(comparecmder.NewCompareCmd())
	cmd.AddCommand(keyscmder.NewKeysCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(exportcmder.NewExportCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
