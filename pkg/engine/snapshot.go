package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// SnapshotFile is the on-disk form of a saved ledger
type SnapshotFile struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Findings  []Finding `json:"findings"`
}

// SnapshotDiff is the result of comparing the current ledger with a baseline
type SnapshotDiff struct {
	New       []Finding
	Resolved  []Finding
	Unchanged []Finding
}

// SaveSnapshot writes the ledger's findings to path as JSON. It returns the
// run ID recorded in the file.
func (l *Ledger) SaveSnapshot(path string) (string, error) {
	snap := SnapshotFile{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Findings:  l.Snapshot(),
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return snap.RunID, nil
}

// LoadSnapshot replaces the ledger's findings with those stored at path
func (l *Ledger) LoadSnapshot(path string) (*SnapshotFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snap SnapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.Findings = append(make([]Finding, 0, len(snap.Findings)), snap.Findings...)

	return &snap, nil
}

// CompareSnapshot diffs the ledger against a baseline. Findings are matched
// on check, verdict and evidence, so a check flipping from FAIL to PASS shows
// up as one resolved and one new finding.
func (l *Ledger) CompareSnapshot(baseline *Ledger) SnapshotDiff {
	current := l.Snapshot()
	previous := baseline.Snapshot()

	prevKeys := make(map[string]bool, len(previous))
	for _, f := range previous {
		prevKeys[f.key()] = true
	}
	currKeys := make(map[string]bool, len(current))
	for _, f := range current {
		currKeys[f.key()] = true
	}

	var diff SnapshotDiff
	for _, f := range current {
		if prevKeys[f.key()] {
			diff.Unchanged = append(diff.Unchanged, f)
		} else {
			diff.New = append(diff.New, f)
		}
	}
	for _, f := range previous {
		if !currKeys[f.key()] {
			diff.Resolved = append(diff.Resolved, f)
		}
	}
	return diff
}
