package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	recentDirsKey  = "recent_output_dirs"
	presetSlotsKey = "preset_slots"

	// MaxRecentDirs bounds the remembered output directory list.
	MaxRecentDirs = 10
	// MaxPresetSlots is the number of quick-access preset slots.
	MaxPresetSlots = 9
)

// PresetSlot is one quick-access preset assignment, scoped to the project.
type PresetSlot struct {
	Slot int    `json:"slot"`
	Path string `json:"path"`
	Name string `json:"name"`
}

// RecentOutputDirs returns the remembered output directories, most recent
// first.
func (e *Engine) RecentOutputDirs(ctx context.Context) ([]string, error) {
	raw, err := e.store.GetConfig(ctx, e.projectKey+":"+recentDirsKey)
	if err != nil {
		return nil, fmt.Errorf("load recent output dirs: %w", err)
	}
	if raw == "" {
		return nil, nil
	}
	var dirs []string
	if err := json.Unmarshal([]byte(raw), &dirs); err != nil {
		return nil, fmt.Errorf("decode recent output dirs: %w", err)
	}
	return dirs, nil
}

// rememberOutputDir moves dir to the front of the recent list, deduplicated
// and capped. Failures are logged, never surfaced; this is a convenience
// list, not state the queue depends on.
func (e *Engine) rememberOutputDir(ctx context.Context, dir string) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return
	}

	dirs, err := e.RecentOutputDirs(ctx)
	if err != nil {
		e.logger.Warn("failed to load recent output dirs", "error", err)
		dirs = nil
	}

	updated := []string{dir}
	for _, d := range dirs {
		if d == dir {
			continue
		}
		updated = append(updated, d)
		if len(updated) == MaxRecentDirs {
			break
		}
	}

	raw, err := json.Marshal(updated)
	if err != nil {
		return
	}
	if err := e.store.SetConfig(ctx, e.projectKey+":"+recentDirsKey, string(raw)); err != nil {
		e.logger.Warn("failed to save recent output dirs", "error", err)
	}
}

// PresetSlots returns the project's slot assignments in slot order. Unset
// slots are absent.
func (e *Engine) PresetSlots(ctx context.Context) ([]PresetSlot, error) {
	raw, err := e.store.GetConfig(ctx, e.projectKey+":"+presetSlotsKey)
	if err != nil {
		return nil, fmt.Errorf("load preset slots: %w", err)
	}
	if raw == "" {
		return nil, nil
	}
	var slots []PresetSlot
	if err := json.Unmarshal([]byte(raw), &slots); err != nil {
		return nil, fmt.Errorf("decode preset slots: %w", err)
	}
	return slots, nil
}

// SetPresetSlot assigns a preset to a slot, replacing any prior assignment.
// An empty path clears the slot.
func (e *Engine) SetPresetSlot(ctx context.Context, slot int, path, name string) error {
	if slot < 1 || slot > MaxPresetSlots {
		return fmt.Errorf("slot must be between 1 and %d", MaxPresetSlots)
	}

	slots, err := e.PresetSlots(ctx)
	if err != nil {
		return err
	}

	updated := slots[:0]
	for _, s := range slots {
		if s.Slot == slot {
			continue
		}
		updated = append(updated, s)
	}
	if path != "" {
		updated = append(updated, PresetSlot{Slot: slot, Path: path, Name: name})
	}
	sort.Slice(updated, func(i, j int) bool { return updated[i].Slot < updated[j].Slot })

	raw, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("encode preset slots: %w", err)
	}
	return e.store.SetConfig(ctx, e.projectKey+":"+presetSlotsKey, string(raw))
}
