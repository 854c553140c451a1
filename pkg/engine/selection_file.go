package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sanonone/kektorspace/pkg/persistence"
	"github.com/sanonone/kektorspace/pkg/selection"
)

// ErrNoSnapshot is returned when a selection file holds no selection frame.
var ErrNoSnapshot = errors.New("no selection snapshot in file")

// SaveSelection writes the manual selection to path as a single CRC frame.
// Without a manual selection an empty snapshot is written.
func (e *Engine) SaveSelection(path string) error {
	snap := e.selector.Preserve()
	if snap == nil {
		snap = &selection.Snapshot{Primary: []string{}, Weights: map[string]float32{}}
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode selection: %w", err)
	}
	if err := persistence.WriteFile(path, func(fw *persistence.FrameWriter) error {
		return fw.WriteFrame(persistence.OpSelection, payload)
	}); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	slog.Info("[Engine] Selection saved", "path", path, "primary", len(snap.Primary))
	return nil
}

// LoadSelection restores a saved manual selection against the current items
// by label and returns the number of restored primary items.
func (e *Engine) LoadSelection(path string) (int, error) {
	var snap *selection.Snapshot
	err := persistence.ReadFile(path, func(op persistence.OpCode, payload []byte) error {
		if op != persistence.OpSelection {
			return nil
		}
		s := &selection.Snapshot{}
		if err := json.Unmarshal(payload, s); err != nil {
			return fmt.Errorf("failed to decode selection: %w", err)
		}
		snap = s
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load selection: %w", err)
	}
	if snap == nil {
		return 0, ErrNoSnapshot
	}

	n := e.selector.Restore(snap)
	if n < len(snap.Primary) {
		slog.Warn("[Engine] Selection labels missing from current items", "saved", len(snap.Primary), "restored", n)
	}
	e.forceNext = true
	return n, nil
}
