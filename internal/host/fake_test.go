package host

import (
	"context"
	"testing"

	"github.com/jakecdahm/exporter/internal/visibility"
)

func TestFake_CaptureRestoreRoundTrip(t *testing.T) {
	fake := NewFake("proj")
	fake.Timeline = &visibility.Snapshot{
		VideoTracks: []visibility.VideoTrack{
			{Muted: true, ClipsEnabled: []bool{true, false, true}},
			{Muted: false, ClipsEnabled: []bool{false}},
		},
		AudioTracks: []visibility.AudioTrack{{Muted: true}, {Muted: false}},
	}
	ctx := context.Background()

	snap, err := fake.CaptureVisibility(ctx)
	if err != nil {
		t.Fatalf("CaptureVisibility() error = %v", err)
	}
	captured := snap.Key()

	// Scramble the timeline, then restore with no structural changes.
	fake.Timeline.VideoTracks[0].Muted = false
	fake.Timeline.VideoTracks[0].ClipsEnabled[1] = true
	fake.Timeline.AudioTracks[0].Muted = false

	report, err := fake.RestoreVisibility(ctx, snap)
	if err != nil {
		t.Fatalf("RestoreVisibility() error = %v", err)
	}
	if report.Skipped != 0 || report.Errors != 0 {
		t.Fatalf("report = %+v, want full application", report)
	}
	if fake.Timeline.Key() != captured {
		t.Fatalf("timeline after restore = %q, want captured state %q", fake.Timeline.Key(), captured)
	}
}

func TestFake_RestoreSkipsOutOfRange(t *testing.T) {
	fake := NewFake("proj")
	fake.Timeline = &visibility.Snapshot{
		VideoTracks: []visibility.VideoTrack{{ClipsEnabled: []bool{true}}},
	}
	ctx := context.Background()

	// Snapshot from a timeline that had more tracks and clips than now.
	report, err := fake.RestoreVisibility(ctx, &visibility.Snapshot{
		VideoTracks: []visibility.VideoTrack{
			{Muted: true, ClipsEnabled: []bool{false, false}},
			{Muted: true, ClipsEnabled: []bool{false}},
		},
		AudioTracks: []visibility.AudioTrack{{Muted: true}},
	})
	if err != nil {
		t.Fatalf("RestoreVisibility() error = %v", err)
	}
	if report.Skipped == 0 {
		t.Fatal("out-of-range flags should be counted as skipped")
	}
	if report.Applied == 0 {
		t.Fatal("in-range flags should still apply")
	}
}
