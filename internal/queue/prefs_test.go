package queue

import (
	"context"
	"fmt"
	"testing"

	"github.com/jakecdahm/exporter/internal/host"
)

func TestRecentOutputDirs(t *testing.T) {
	engine, _ := testEngine(t, host.NewFake("proj"))
	ctx := context.Background()

	dirs, err := engine.RecentOutputDirs(ctx)
	if err != nil {
		t.Fatalf("RecentOutputDirs() error = %v", err)
	}
	if len(dirs) != 0 {
		t.Fatalf("fresh project has %d recent dirs, want 0", len(dirs))
	}

	engine.rememberOutputDir(ctx, "/out/a")
	engine.rememberOutputDir(ctx, "/out/b")
	engine.rememberOutputDir(ctx, "/out/a") // re-use moves to front, no duplicate

	dirs, err = engine.RecentOutputDirs(ctx)
	if err != nil {
		t.Fatalf("RecentOutputDirs() error = %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("got %d recent dirs, want 2", len(dirs))
	}
	if dirs[0] != "/out/a" || dirs[1] != "/out/b" {
		t.Fatalf("recent dirs = %v, want [/out/a /out/b]", dirs)
	}
}

func TestRecentOutputDirs_Capped(t *testing.T) {
	engine, _ := testEngine(t, host.NewFake("proj"))
	ctx := context.Background()

	for i := 0; i < MaxRecentDirs+4; i++ {
		engine.rememberOutputDir(ctx, fmt.Sprintf("/out/%d", i))
	}

	dirs, err := engine.RecentOutputDirs(ctx)
	if err != nil {
		t.Fatalf("RecentOutputDirs() error = %v", err)
	}
	if len(dirs) != MaxRecentDirs {
		t.Fatalf("got %d recent dirs, want cap %d", len(dirs), MaxRecentDirs)
	}
	if dirs[0] != fmt.Sprintf("/out/%d", MaxRecentDirs+3) {
		t.Fatalf("newest dir = %q, want the last remembered one", dirs[0])
	}
}

func TestPresetSlots(t *testing.T) {
	engine, _ := testEngine(t, host.NewFake("proj"))
	ctx := context.Background()

	if err := engine.SetPresetSlot(ctx, 3, "/presets/prores.epr", "ProRes 422"); err != nil {
		t.Fatalf("SetPresetSlot() error = %v", err)
	}
	if err := engine.SetPresetSlot(ctx, 1, "/presets/h264.epr", "H.264"); err != nil {
		t.Fatalf("SetPresetSlot() error = %v", err)
	}

	slots, err := engine.PresetSlots(ctx)
	if err != nil {
		t.Fatalf("PresetSlots() error = %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("got %d slots, want 2", len(slots))
	}
	if slots[0].Slot != 1 || slots[1].Slot != 3 {
		t.Fatalf("slots not in slot order: %+v", slots)
	}

	// Reassign replaces, empty path clears.
	if err := engine.SetPresetSlot(ctx, 3, "/presets/dnxhr.epr", "DNxHR"); err != nil {
		t.Fatalf("SetPresetSlot() reassign error = %v", err)
	}
	if err := engine.SetPresetSlot(ctx, 1, "", ""); err != nil {
		t.Fatalf("SetPresetSlot() clear error = %v", err)
	}

	slots, err = engine.PresetSlots(ctx)
	if err != nil {
		t.Fatalf("PresetSlots() error = %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("got %d slots after clear, want 1", len(slots))
	}
	if slots[0].Slot != 3 || slots[0].Name != "DNxHR" {
		t.Fatalf("slot 3 = %+v, want reassigned DNxHR", slots[0])
	}
}

func TestSetPresetSlot_Bounds(t *testing.T) {
	engine, _ := testEngine(t, host.NewFake("proj"))
	ctx := context.Background()

	if err := engine.SetPresetSlot(ctx, 0, "/p.epr", ""); err == nil {
		t.Fatal("slot 0 should be rejected")
	}
	if err := engine.SetPresetSlot(ctx, MaxPresetSlots+1, "/p.epr", ""); err == nil {
		t.Fatalf("slot %d should be rejected", MaxPresetSlots+1)
	}
}
