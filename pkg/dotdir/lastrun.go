package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	lastRunFile = "last_run.json"
)

// RunState summarizes the most recent analysis run.
type RunState struct {
	RunID     string `json:"run_id"`
	PolicyKey string `json:"policy_key"`

	// Cost and Decisions describe the worst-case path. Model names the cost
	// model Cost was measured with.
	Model     string `json:"model"`
	Cost      int64  `json:"cost"`
	Decisions int    `json:"decisions"`

	Saved    bool   `json:"saved"`
	Unified  bool   `json:"unified"`
	PathFile string `json:"path_file,omitempty"`

	// Failures are the messages of non-fatal errors of the run.
	Failures []string `json:"failures,omitempty"`

	FinishedAt time.Time `json:"finished_at"`
}

// LoadLastRun loads the state from a target .wca/last_run.json.
// Returns nil, nil if no run was recorded.
func (m *Manager) LoadLastRun(overrideDir string) (*RunState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, lastRunFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading last run: %w", err)
	}

	state := &RunState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing last run: %w", err)
	}

	return state, nil
}

// SaveLastRun persists state to a target .wca/last_run.json. It fails when
// no .wca/ directory is resolved.
func (m *Manager) SaveLastRun(state *RunState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil run state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}
	if dir == "" {
		return errors.New("no .wca directory; run wca init")
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, lastRunFile), data, 0o600); err != nil {
		return fmt.Errorf("writing run state: %w", err)
	}

	return nil
}

// ClearLastRun removes the last run state. It is not an error if none exists.
func (m *Manager) ClearLastRun(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}
	if dir == "" {
		return nil
	}

	if err := os.Remove(filepath.Join(dir, lastRunFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing run state: %w", err)
	}

	return nil
}

// PolicyDBPath returns the default SQLite policy database inside a
// resolved .wca/ directory, or "" when there is none.
func (m *Manager) PolicyDBPath(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil || dir == "" {
		return "", err
	}
	return filepath.Join(dir, "policies.db"), nil
}
