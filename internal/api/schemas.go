package api

import (
	"time"

	"github.com/jakecdahm/exporter/internal/queue"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
	Project string `json:"project"`
}

type StatusResponse struct {
	Project   string `json:"project"`
	Running   bool   `json:"running"`
	Pending   int    `json:"pending"`
	Exporting int    `json:"exporting"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
}

type EnqueueRequest struct {
	Mode          string   `json:"mode"`
	PresetPath    string   `json:"preset_path"`
	PresetName    string   `json:"preset_name,omitempty"`
	OutputDir     string   `json:"output_dir"`
	Template      string   `json:"template,omitempty"`
	MarkerColors  []string `json:"marker_colors,omitempty"`
	MarkerStills  bool     `json:"marker_stills,omitempty"`
	MarkerBeforeS float64  `json:"marker_before_s,omitempty"`
	MarkerAfterS  float64  `json:"marker_after_s,omitempty"`
}

type EnqueueResponse struct {
	Added   int  `json:"added"`
	NoMatch bool `json:"no_match,omitempty"`
}

type ItemResponse struct {
	ID               string `json:"id"`
	SequenceName     string `json:"sequence_name"`
	ClipName         string `json:"clip_name,omitempty"`
	MarkerName       string `json:"marker_name,omitempty"`
	MarkerColor      string `json:"marker_color,omitempty"`
	Still            bool   `json:"still"`
	ExpectedFilename string `json:"expected_filename"`
	OutputDir        string `json:"output_dir"`
	PresetName       string `json:"preset_name,omitempty"`
	Status           string `json:"status"`
	HasSnapshot      bool   `json:"has_snapshot"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

type QueueResponse struct {
	Items []ItemResponse `json:"items"`
}

type RunResponse struct {
	Started  bool   `json:"started"`
	Strategy string `json:"strategy"`
}

type RunSummaryResponse struct {
	ID             string  `json:"id"`
	Strategy       string  `json:"strategy"`
	StartedAt      string  `json:"started_at"`
	TotalItems     int     `json:"total_items"`
	SuccessCount   int     `json:"success_count"`
	FailedCount    int     `json:"failed_count"`
	TotalDurationS float64 `json:"total_duration_s"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
	OutputDir      string  `json:"output_dir"`
}

type HistoryResponse struct {
	Runs []RunSummaryResponse `json:"runs"`
}

type SaveQueueRequest struct {
	Name string `json:"name,omitempty"`
}

type SavedQueueResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ItemCount int    `json:"item_count"`
	CreatedAt string `json:"created_at"`
}

type SavedQueuesResponse struct {
	SavedQueues []SavedQueueResponse `json:"saved_queues"`
}

type LoadQueueResponse struct {
	Loaded int `json:"loaded"`
}

type RecentDirsResponse struct {
	Dirs []string `json:"dirs"`
}

type PresetSlotResponse struct {
	Slot int    `json:"slot"`
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

type PresetSlotsResponse struct {
	Slots []PresetSlotResponse `json:"slots"`
}

type SetPresetSlotRequest struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ItemToResponse(i *queue.Item) ItemResponse {
	return ItemResponse{
		ID:               i.ID,
		SequenceName:     i.SequenceName,
		ClipName:         i.ClipName,
		MarkerName:       i.MarkerName,
		MarkerColor:      i.MarkerColor,
		Still:            i.Still,
		ExpectedFilename: i.ExpectedFilename,
		OutputDir:        i.OutputDir,
		PresetName:       i.PresetName,
		Status:           i.Status,
		HasSnapshot:      i.Snapshot != nil,
		CreatedAt:        i.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        i.UpdatedAt.Format(time.RFC3339),
	}
}

func RunSummaryToResponse(s *queue.RunSummary) RunSummaryResponse {
	return RunSummaryResponse{
		ID:             s.ID,
		Strategy:       s.Strategy,
		StartedAt:      s.StartedAt.Format(time.RFC3339),
		TotalItems:     s.TotalItems,
		SuccessCount:   s.SuccessCount,
		FailedCount:    s.FailedCount,
		TotalDurationS: s.TotalDurationS,
		TotalSizeBytes: s.TotalSizeBytes,
		OutputDir:      s.OutputDir,
	}
}

func SavedQueueToResponse(sq *queue.SavedQueue) SavedQueueResponse {
	return SavedQueueResponse{
		ID:        sq.ID,
		Name:      sq.Name,
		ItemCount: len(sq.Items),
		CreatedAt: sq.CreatedAt.Format(time.RFC3339),
	}
}
