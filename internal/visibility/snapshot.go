// Package visibility models the captured enabled/disabled state of a
// timeline: per-track mute flags and per-clip enabled flags. A Snapshot is
// a plain value, independent of any live editor handle, so items queued at
// different times can each carry the state that existed when they were added.
package visibility

import (
	"fmt"
	"strings"
)

// VideoTrack holds one video track's mute flag and the enabled flag of each
// clip on it, in timeline index order.
type VideoTrack struct {
	Muted        bool   `json:"muted"`
	ClipsEnabled []bool `json:"clips_enabled"`
}

// AudioTrack holds one audio track's mute flag.
type AudioTrack struct {
	Muted bool `json:"muted"`
}

// Snapshot is the captured visibility state of a timeline.
type Snapshot struct {
	VideoTracks []VideoTrack `json:"video_tracks"`
	AudioTracks []AudioTrack `json:"audio_tracks"`
}

// Report describes how much of a snapshot could be applied back onto the
// current timeline. Restore is index-based and best-effort: indices beyond
// the current track/clip counts are skipped, individual flag failures are
// counted, and neither aborts the restore.
type Report struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Stale reports whether the timeline drifted structurally since capture,
// leaving part of the snapshot unapplied.
func (r Report) Stale() bool {
	return r.Skipped > 0
}

// Clone returns a deep copy. Queue items must own their snapshot outright;
// sharing slices with the capture result would let a later restore observe
// mutations.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		VideoTracks: make([]VideoTrack, len(s.VideoTracks)),
		AudioTracks: make([]AudioTrack, len(s.AudioTracks)),
	}
	for i, t := range s.VideoTracks {
		clips := make([]bool, len(t.ClipsEnabled))
		copy(clips, t.ClipsEnabled)
		out.VideoTracks[i] = VideoTrack{Muted: t.Muted, ClipsEnabled: clips}
	}
	copy(out.AudioTracks, s.AudioTracks)
	return out
}

// Key returns a canonical string encoding of the snapshot content. Two
// snapshots with identical flags produce identical keys, so batch grouping
// can use a map keyed by content instead of pairwise comparison.
func (s *Snapshot) Key() string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("v:")
	for _, t := range s.VideoTracks {
		b.WriteByte(flagByte(t.Muted))
		b.WriteByte('[')
		for _, e := range t.ClipsEnabled {
			b.WriteByte(flagByte(e))
		}
		b.WriteByte(']')
	}
	b.WriteString("a:")
	for _, t := range s.AudioTracks {
		b.WriteByte(flagByte(t.Muted))
	}
	return b.String()
}

// Fingerprint returns a structural summary (track and clip counts) used to
// detect timeline drift between capture and restore.
func (s *Snapshot) Fingerprint() string {
	if s == nil {
		return "empty"
	}
	clips := 0
	for _, t := range s.VideoTracks {
		clips += len(t.ClipsEnabled)
	}
	return fmt.Sprintf("v%d/a%d/c%d", len(s.VideoTracks), len(s.AudioTracks), clips)
}

// FlagCount returns the total number of flags the snapshot carries.
func (s *Snapshot) FlagCount() int {
	if s == nil {
		return 0
	}
	n := len(s.VideoTracks) + len(s.AudioTracks)
	for _, t := range s.VideoTracks {
		n += len(t.ClipsEnabled)
	}
	return n
}

func flagByte(b bool) byte {
	if b {
		return '1'
	}
	return '0'
}
