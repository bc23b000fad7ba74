package main

import (
	"os"

	deepresearchcmder "github.com/ShenSeanChen/yt-DeepResearch-Frontend/cmd/deepresearch"
)

func main() {
	cmd := deepresearchcmder.NewDeepResearchCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
