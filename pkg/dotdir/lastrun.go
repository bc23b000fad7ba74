package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const lastRunFile = "lastrun.json"

// LastRun points at the most recently finished session so that commands
// like "deepresearch export" can default to it without a session ID.
type LastRun struct {
	SessionID  string    `json:"session_id"`
	Query      string    `json:"query"`
	Model      string    `json:"model"`
	Status     string    `json:"status"`
	FinishedAt time.Time `json:"finished_at"`
}

// LoadLastRun loads the last-run pointer from .deepresearch/lastrun.json.
// Returns nil, nil if no run has been recorded yet.
// If overrideDir is non-empty, it is used instead of the default location.
func (m *Manager) LoadLastRun(overrideDir string) (*LastRun, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, lastRunFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading last run: %w", err)
	}

	state := &LastRun{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing last run: %w", err)
	}

	return state, nil
}

// SaveLastRun persists the last-run pointer.
func (m *Manager) SaveLastRun(state *LastRun, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil last run")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling last run: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, lastRunFile), data, 0o600); err != nil {
		return fmt.Errorf("writing last run: %w", err)
	}

	return nil
}

// ClearLastRun removes the last-run pointer. Returns nil if it does not exist.
func (m *Manager) ClearLastRun(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, lastRunFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing last run: %w", err)
	}

	return nil
}
