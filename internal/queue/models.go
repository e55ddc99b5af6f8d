package queue

import (
	"time"

	"github.com/jakecdahm/exporter/internal/host"
	"github.com/jakecdahm/exporter/internal/visibility"
)

const (
	StatusPending   = "pending"
	StatusExporting = "exporting"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const (
	StrategyDirect = "direct"
	StrategyBatch  = "batch"
)

// Item is one unit of export work. ExpectedFilename is computed once at
// enqueue time and never changes afterwards, so the name shown while the
// item waits is the name of the file that gets produced. The snapshot is
// owned exclusively by the item; it is read during restore and never
// mutated.
type Item struct {
	ID               string               `json:"id"`
	SequenceName     string               `json:"sequence_name"`
	ClipName         string               `json:"clip_name,omitempty"`
	ClipIndex        int                  `json:"clip_index"`
	MarkerName       string               `json:"marker_name,omitempty"`
	MarkerIndex      int                  `json:"marker_index"`
	MarkerColor      string               `json:"marker_color,omitempty"`
	StartTicks       int64                `json:"start_ticks"`
	EndTicks         int64                `json:"end_ticks"`
	UseInOut         bool                 `json:"use_in_out"`
	Still            bool                 `json:"still"`
	OutputDir        string               `json:"output_dir"`
	ExpectedFilename string               `json:"expected_filename"`
	PresetPath       string               `json:"preset_path"`
	PresetName       string               `json:"preset_name"`
	Snapshot         *visibility.Snapshot `json:"snapshot,omitempty"`
	Status           string               `json:"status"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// SourceDurationSeconds returns the length of the item's source range.
func (i *Item) SourceDurationSeconds() float64 {
	if !i.UseInOut || i.EndTicks <= i.StartTicks {
		return 0
	}
	return host.TicksToSeconds(i.EndTicks - i.StartTicks)
}

// RunResult records one item's outcome. Never mutated after creation.
type RunResult struct {
	Filename        string  `json:"filename"`
	OutputPath      string  `json:"output_path"`
	SourceDurationS float64 `json:"source_duration_s"`
	ExportDurationS float64 `json:"export_duration_s"`
	SizeBytes       int64   `json:"size_bytes"`
	Success         bool    `json:"success"`
	Error           string  `json:"error,omitempty"`
}

// RunSummary aggregates one run's results for history and logging.
type RunSummary struct {
	ID             string    `json:"id"`
	ProjectKey     string    `json:"project_key"`
	Strategy       string    `json:"strategy"`
	StartedAt      time.Time `json:"started_at"`
	TotalItems     int       `json:"total_items"`
	SuccessCount   int       `json:"success_count"`
	FailedCount    int       `json:"failed_count"`
	TotalDurationS float64   `json:"total_duration_s"`
	TotalSizeBytes int64     `json:"total_size_bytes"`
	OutputDir      string    `json:"output_dir"`
}

// SavedQueue is a user-invoked named save of the pending queue slice.
// Visibility snapshots are stripped before saving; a loaded queue captures
// fresh state when its items next run.
type SavedQueue struct {
	ID         string    `json:"id"`
	ProjectKey string    `json:"project_key"`
	Name       string    `json:"name"`
	Items      []*Item   `json:"items"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatusCounts summarizes the queue by item state.
type StatusCounts struct {
	Pending   int  `json:"pending"`
	Exporting int  `json:"exporting"`
	Completed int  `json:"completed"`
	Failed    int  `json:"failed"`
	Running   bool `json:"running"`
}
