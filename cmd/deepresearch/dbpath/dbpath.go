// Package dbpath resolves the session history database location shared by
// the research, history, and export commands.
package dbpath

import (
	"path/filepath"
	"strings"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/dotdir"
)

const historyFile = "history.db"

// Resolve returns the SQLite path for the session archive. An explicit
// override (flag, env, or config value) wins; otherwise the database lives
// as history.db inside the resolved .deepresearch/ directory, which is
// created if needed.
func Resolve(override, configDir string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		return override, nil
	}

	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return "", err
	}

	return filepath.Join(target, historyFile), nil
}
