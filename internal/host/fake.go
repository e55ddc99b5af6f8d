package host

import (
	"context"
	"sync"

	"github.com/jakecdahm/exporter/internal/visibility"
)

// Fake is an in-memory Adapter used by tests and by `exporterd serve --fake`.
// It owns a simulated timeline whose visibility flags restore operations
// mutate, and records every call so tests can assert ordering and grouping.
// Per-method hook functions override the default behavior when set.
type Fake struct {
	mu sync.Mutex

	Project  string
	Items    map[Mode][]SourceItem
	Timeline *visibility.Snapshot

	DirectExportFn func(req DirectExportRequest) (DirectExportResult, error)
	BatchEnqueueFn func(items []BatchItem) (BatchResult, error)
	CaptureFrameFn func(req FrameRequest) (FrameResult, error)
	EditPointsFn   func(sequenceName string, startTicks, endTicks int64) ([]int64, error)

	RestoreCalls    []string
	DirectCalls     []DirectExportRequest
	BatchCalls      [][]BatchItem
	FrameCalls      []FrameRequest
	StartBatchCalls int
}

func NewFake(project string) *Fake {
	return &Fake{
		Project:  project,
		Items:    make(map[Mode][]SourceItem),
		Timeline: &visibility.Snapshot{},
	}
}

func (f *Fake) ProjectName(ctx context.Context) (string, error) {
	if f.Project == "" {
		return "default", nil
	}
	return f.Project, nil
}

func (f *Fake) GetQueueInfo(ctx context.Context, mode Mode) ([]SourceItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]SourceItem, len(f.Items[mode]))
	copy(items, f.Items[mode])
	return items, nil
}

func (f *Fake) CaptureVisibility(ctx context.Context) (*visibility.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Timeline.Clone(), nil
}

// RestoreVisibility applies the snapshot onto the fake timeline by index,
// skipping indices beyond the current structure, like the real editor bridge.
func (f *Fake) RestoreVisibility(ctx context.Context, snap *visibility.Snapshot) (visibility.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.RestoreCalls = append(f.RestoreCalls, snap.Key())

	var report visibility.Report
	if snap == nil {
		return report, nil
	}

	for i, t := range snap.VideoTracks {
		if i >= len(f.Timeline.VideoTracks) {
			report.Skipped += 1 + len(t.ClipsEnabled)
			continue
		}
		f.Timeline.VideoTracks[i].Muted = t.Muted
		report.Applied++
		for j, enabled := range t.ClipsEnabled {
			if j >= len(f.Timeline.VideoTracks[i].ClipsEnabled) {
				report.Skipped++
				continue
			}
			f.Timeline.VideoTracks[i].ClipsEnabled[j] = enabled
			report.Applied++
		}
	}

	for i, t := range snap.AudioTracks {
		if i >= len(f.Timeline.AudioTracks) {
			report.Skipped++
			continue
		}
		f.Timeline.AudioTracks[i].Muted = t.Muted
		report.Applied++
	}

	return report, nil
}

func (f *Fake) DirectExport(ctx context.Context, req DirectExportRequest) (DirectExportResult, error) {
	f.mu.Lock()
	fn := f.DirectExportFn
	f.DirectCalls = append(f.DirectCalls, req)
	f.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return DirectExportResult{
		FileSizeBytes: 1 << 20,
		DurationTicks: req.EndTicks - req.StartTicks,
	}, nil
}

func (f *Fake) BatchEnqueue(ctx context.Context, items []BatchItem) (BatchResult, error) {
	f.mu.Lock()
	fn := f.BatchEnqueueFn
	recorded := make([]BatchItem, len(items))
	copy(recorded, items)
	f.BatchCalls = append(f.BatchCalls, recorded)
	f.mu.Unlock()

	if fn != nil {
		return fn(items)
	}
	return BatchResult{Queued: len(items)}, nil
}

func (f *Fake) StartBatch(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StartBatchCalls++
	return nil
}

func (f *Fake) CaptureFrame(ctx context.Context, req FrameRequest) (FrameResult, error) {
	f.mu.Lock()
	fn := f.CaptureFrameFn
	f.FrameCalls = append(f.FrameCalls, req)
	f.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return FrameResult{
		OutputPath:    req.OutputPathNoExt + ".jpg",
		FileSizeBytes: 64 << 10,
	}, nil
}

func (f *Fake) GetEditPoints(ctx context.Context, sequenceName string, startTicks, endTicks int64) ([]int64, error) {
	if f.EditPointsFn != nil {
		return f.EditPointsFn(sequenceName, startTicks, endTicks)
	}
	return nil, nil
}
