// Package host defines the narrow capability surface onto the editing
// application. The queue engine only ever talks to an Adapter; the real
// implementation is an HTTP bridge into the editor process, and tests use
// the in-memory Fake.
package host

import (
	"context"
	"fmt"

	"github.com/jakecdahm/exporter/internal/visibility"
)

// TicksPerSecond is the editor's fixed-point time resolution.
const TicksPerSecond int64 = 254016000000

// TicksToSeconds converts editor ticks to seconds.
func TicksToSeconds(ticks int64) float64 {
	return float64(ticks) / float64(TicksPerSecond)
}

// SecondsToTicks converts seconds to editor ticks.
func SecondsToTicks(secs float64) int64 {
	return int64(secs * float64(TicksPerSecond))
}

// Mode selects which source set GetQueueInfo resolves.
type Mode string

const (
	ModeClips     Mode = "clips"
	ModeSequences Mode = "sequences"
	ModeMarkers   Mode = "markers"
)

// SourceItem is one candidate export unit reported by the editor: a selected
// clip, a whole sequence, or a marker position. Marker items carry a single
// point in time (StartTicks == EndTicks) plus the sequence bounds the engine
// clamps expanded ranges against.
type SourceItem struct {
	SequenceName     string `json:"sequence_name"`
	ClipName         string `json:"clip_name,omitempty"`
	ClipIndex        int    `json:"clip_index"`
	MarkerName       string `json:"marker_name,omitempty"`
	MarkerIndex      int    `json:"marker_index"`
	MarkerColor      string `json:"marker_color,omitempty"`
	StartTicks       int64  `json:"start_ticks"`
	EndTicks         int64  `json:"end_ticks"`
	SequenceEndTicks int64  `json:"sequence_end_ticks"`
	HasRange         bool   `json:"has_range"`
}

// DirectExportRequest asks the editor to render one item synchronously.
type DirectExportRequest struct {
	SequenceName string `json:"sequence_name"`
	StartTicks   int64  `json:"start_ticks"`
	EndTicks     int64  `json:"end_ticks"`
	UseInOut     bool   `json:"use_in_out"`
	PresetPath   string `json:"preset_path"`
	OutputPath   string `json:"output_path"`
}

// DirectExportResult reports a completed synchronous render.
type DirectExportResult struct {
	FileSizeBytes int64 `json:"file_size_bytes"`
	DurationTicks int64 `json:"duration_ticks"`
}

// BatchItem is one entry of a grouped batch-encoder submission.
type BatchItem struct {
	SequenceName string `json:"sequence_name"`
	StartTicks   int64  `json:"start_ticks"`
	EndTicks     int64  `json:"end_ticks"`
	UseInOut     bool   `json:"use_in_out"`
	PresetPath   string `json:"preset_path"`
	OutputPath   string `json:"output_path"`
}

// BatchResult acknowledges a batch submission. Queued means "accepted by the
// encoder queue", not "rendered".
type BatchResult struct {
	Queued int      `json:"queued"`
	Errors []string `json:"errors,omitempty"`
}

// FrameRequest asks the editor to capture a single still frame. The editor
// appends its own image extension to OutputPathNoExt.
type FrameRequest struct {
	SequenceName    string `json:"sequence_name"`
	TimeTicks       int64  `json:"time_ticks"`
	OutputPathNoExt string `json:"output_path_no_ext"`
}

// FrameResult reports a captured still frame.
type FrameResult struct {
	OutputPath    string `json:"output_path"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

// Adapter is the capability interface the queue engine consumes. All calls
// are synchronous round trips; the engine awaits them one at a time because
// the editor's in/out points and visibility flags are shared mutable state.
type Adapter interface {
	// ProjectName returns the identity key persisted state is scoped by.
	ProjectName(ctx context.Context) (string, error)

	// GetQueueInfo resolves the current source set for the given mode.
	GetQueueInfo(ctx context.Context, mode Mode) ([]SourceItem, error)

	// CaptureVisibility reads the current track mute and clip enabled flags.
	CaptureVisibility(ctx context.Context) (*visibility.Snapshot, error)

	// RestoreVisibility applies a snapshot back onto the timeline,
	// best-effort, and reports how much of it could be applied.
	RestoreVisibility(ctx context.Context, snap *visibility.Snapshot) (visibility.Report, error)

	// DirectExport renders one range (or the whole sequence) in-process.
	DirectExport(ctx context.Context, req DirectExportRequest) (DirectExportResult, error)

	// BatchEnqueue submits items to the external encoder queue.
	BatchEnqueue(ctx context.Context, items []BatchItem) (BatchResult, error)

	// StartBatch triggers the external encoder to begin processing.
	StartBatch(ctx context.Context) error

	// CaptureFrame renders a single still frame.
	CaptureFrame(ctx context.Context, req FrameRequest) (FrameResult, error)

	// GetEditPoints returns cut positions inside a range, used for the
	// companion cut-sheet export.
	GetEditPoints(ctx context.Context, sequenceName string, startTicks, endTicks int64) ([]int64, error)
}

// AdapterError wraps an error response from the editor bridge.
type AdapterError struct {
	Op      string
	Message string
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("host %s: %s", e.Op, e.Message)
}
