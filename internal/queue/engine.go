package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jakecdahm/exporter/internal/host"
	"github.com/jakecdahm/exporter/internal/logging"
	"github.com/jakecdahm/exporter/internal/preset"
	"github.com/jakecdahm/exporter/internal/runlog"
	"github.com/jakecdahm/exporter/internal/template"
	"github.com/jakecdahm/exporter/internal/visibility"
)

var (
	ErrNoOutputDir   = errors.New("no output directory configured")
	ErrNoPreset      = errors.New("no preset configured")
	ErrNoSource      = errors.New("no sequences, clips, or markers found")
	ErrRunInProgress = errors.New("a run is already in progress")
)

// Options tunes engine behavior. Zero values fall back to sane defaults
// except PruneDelay, where zero means prune synchronously.
type Options struct {
	Template     string
	MarkerBefore time.Duration
	MarkerAfter  time.Duration
	PruneDelay   time.Duration
	RunLogDir    string
	CutSheet     bool
}

// Engine orchestrates the export queue: it builds items from the host's
// current selection, runs them against either backend, and keeps the store
// in sync after every mutation. All exports are strictly sequential; the
// host's in/out points and visibility flags are shared mutable state with
// no isolation between items.
type Engine struct {
	adapter    host.Adapter
	store      Store
	logger     *slog.Logger
	opts       Options
	projectKey string

	mu    sync.Mutex
	items []*Item

	running       atomic.Bool
	stopRequested atomic.Bool
	persistWarned atomic.Bool
}

func NewEngine(adapter host.Adapter, store Store, projectKey string, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		adapter:    adapter,
		store:      store,
		logger:     logging.WithComponent(logger, "engine"),
		opts:       opts,
		projectKey: projectKey,
	}
}

// Restore loads the persisted queue for this engine's project. Interrupted
// items come back pending; terminal items from a prior session are gone.
func (e *Engine) Restore(ctx context.Context) error {
	items, err := e.store.Load(ctx, e.projectKey)
	if err != nil {
		return fmt.Errorf("restore queue: %w", err)
	}

	e.mu.Lock()
	e.items = items
	e.mu.Unlock()

	if len(items) > 0 {
		e.logger.Info("restored queue", "project", e.projectKey, "items", len(items))
	}
	return nil
}

// ProjectKey returns the project identity this engine is scoped to.
func (e *Engine) ProjectKey() string {
	return e.projectKey
}

// Items returns a copy of the queue in display order. Item values are
// copied under the lock, so callers never observe a concurrent run's
// status writes.
func (e *Engine) Items() []Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Item, len(e.items))
	for i, item := range e.items {
		out[i] = *item
	}
	return out
}

// Status summarizes the queue by item state.
func (e *Engine) Status() StatusCounts {
	e.mu.Lock()
	defer e.mu.Unlock()
	counts := StatusCounts{Running: e.running.Load()}
	for _, item := range e.items {
		switch item.Status {
		case StatusPending:
			counts.Pending++
		case StatusExporting:
			counts.Exporting++
		case StatusCompleted:
			counts.Completed++
		case StatusFailed:
			counts.Failed++
		}
	}
	return counts
}

// Stop asks a running export pass to halt between items. The item currently
// exporting always reaches a terminal state first.
func (e *Engine) Stop() {
	e.stopRequested.Store(true)
}

// EnqueueRequest describes one enqueue call. Durations of zero fall back to
// the engine's configured marker padding.
type EnqueueRequest struct {
	Mode         host.Mode     `json:"mode"`
	PresetPath   string        `json:"preset_path"`
	PresetName   string        `json:"preset_name"`
	OutputDir    string        `json:"output_dir"`
	Template     string        `json:"template,omitempty"`
	MarkerColors []string      `json:"marker_colors,omitempty"`
	MarkerStills bool          `json:"marker_stills,omitempty"`
	MarkerBefore time.Duration `json:"-"`
	MarkerAfter  time.Duration `json:"-"`
}

// EnqueueOutcome reports what an enqueue call produced. Zero items with
// NoMatch set means the marker color filter excluded everything; that is a
// no-op, not an error.
type EnqueueOutcome struct {
	Added   int  `json:"added"`
	NoMatch bool `json:"no_match,omitempty"`
}

// Enqueue resolves the host's current source set for the requested mode and
// appends pending items for it. All items produced by one call share one
// visibility snapshot, captured here; each item owns a deep copy.
func (e *Engine) Enqueue(ctx context.Context, req EnqueueRequest) (EnqueueOutcome, error) {
	if strings.TrimSpace(req.OutputDir) == "" {
		return EnqueueOutcome{}, ErrNoOutputDir
	}
	if req.PresetPath == "" {
		return EnqueueOutcome{}, ErrNoPreset
	}

	mode := req.Mode
	if mode == "" {
		mode = host.ModeClips
	}

	sources, err := e.adapter.GetQueueInfo(ctx, mode)
	if err != nil {
		return EnqueueOutcome{}, fmt.Errorf("resolve sources: %w", err)
	}
	if len(sources) == 0 {
		return EnqueueOutcome{}, ErrNoSource
	}

	if mode == host.ModeMarkers {
		sources = filterMarkers(sources, req.MarkerColors)
		if len(sources) == 0 {
			e.logger.Info("marker color filter matched nothing", "colors", req.MarkerColors)
			return EnqueueOutcome{NoMatch: true}, nil
		}
		sources = e.expandMarkers(sources, req)
	}

	snapshot, err := e.adapter.CaptureVisibility(ctx)
	if err != nil {
		// Items still export without a snapshot; they just render whatever
		// visibility state exists at run time.
		e.logger.Warn("visibility capture failed, items will run without snapshot", "error", err)
		snapshot = nil
	}

	tmpl := req.Template
	if tmpl == "" {
		tmpl = e.opts.Template
	}
	extension := preset.ResolveExtension(req.PresetPath)

	e.mu.Lock()
	base := len(e.items)
	now := time.Now()
	added := make([]*Item, 0, len(sources))
	for i, src := range sources {
		ext := extension
		still := req.MarkerStills && mode == host.ModeMarkers
		if still {
			ext = ".jpg"
		}
		name := template.Render(tmpl, template.Context{
			Index:        base + i,
			SequenceName: src.SequenceName,
			ClipName:     src.ClipName,
			MarkerName:   src.MarkerName,
		}, ext)

		added = append(added, &Item{
			ID:               uuid.NewString(),
			SequenceName:     src.SequenceName,
			ClipName:         src.ClipName,
			ClipIndex:        src.ClipIndex,
			MarkerName:       src.MarkerName,
			MarkerIndex:      src.MarkerIndex,
			MarkerColor:      src.MarkerColor,
			StartTicks:       src.StartTicks,
			EndTicks:         src.EndTicks,
			UseInOut:         src.HasRange,
			Still:            still,
			OutputDir:        req.OutputDir,
			ExpectedFilename: name,
			PresetPath:       req.PresetPath,
			PresetName:       req.PresetName,
			Snapshot:         snapshot.Clone(),
			Status:           StatusPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}
	e.items = append(e.items, added...)
	e.mu.Unlock()

	e.persist(ctx)
	e.rememberOutputDir(ctx, req.OutputDir)
	e.logger.Info("enqueued items", "mode", mode, "added", len(added))
	return EnqueueOutcome{Added: len(added)}, nil
}

// Remove deletes one item by id.
func (e *Engine) Remove(ctx context.Context, id string) bool {
	e.mu.Lock()
	found := false
	kept := e.items[:0]
	for _, item := range e.items {
		if item.ID == id {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	e.items = kept
	e.mu.Unlock()

	if found {
		e.persist(ctx)
	}
	return found
}

// Clear empties the queue.
func (e *Engine) Clear(ctx context.Context) {
	e.mu.Lock()
	e.items = nil
	e.mu.Unlock()
	e.persist(ctx)
}

// RunSequentialDirect exports every pending item in queue order through the
// synchronous backend, one at a time. Failed items stay visible; completed
// items are pruned after the configured grace delay.
func (e *Engine) RunSequentialDirect(ctx context.Context) (*RunSummary, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer e.running.Store(false)
	e.stopRequested.Store(false)
	e.persistWarned.Store(false)

	runID := uuid.NewString()
	log := logging.WithRunID(e.logger, runID)
	lg := e.openRunLog(log)

	startedAt := time.Now()
	var results []RunResult
	var entries []runlog.Entry
	var cuts []runlog.Cut
	outputDir := ""

	for _, id := range e.pendingIDs() {
		if e.stopRequested.Load() || ctx.Err() != nil {
			log.Info("run stopped between items")
			break
		}

		item := e.itemByID(id)
		if item == nil || item.Status != StatusPending {
			continue
		}
		outputDir = item.OutputDir

		e.setStatus(ctx, id, StatusExporting)
		result := e.exportOne(ctx, item, log)
		if result.Success {
			e.setStatus(ctx, id, StatusCompleted)
		} else {
			e.setStatus(ctx, id, StatusFailed)
		}

		results = append(results, result)
		if lg != nil {
			entries = append(entries, toEntry(result))
			lg.Append(entries, outputDir)
		}

		if e.opts.CutSheet && result.Success && !item.Still && item.UseInOut {
			cuts = append(cuts, e.collectCuts(ctx, item, log)...)
		}
	}

	if lg != nil && len(cuts) > 0 {
		if err := lg.WriteCutSheet(cuts); err != nil {
			log.Warn("cut sheet write failed", "error", err)
		}
	}

	summary := e.finishRun(ctx, runID, StrategyDirect, startedAt, results, outputDir, log)
	return summary, nil
}

// RunBatch submits pending items to the asynchronous batch encoder. Still
// captures cannot be rendered by the batch backend and go through the direct
// path first. Video items are grouped by identical snapshot content so each
// group's visibility state is restored exactly once, and the external
// encoder is started once per run after all groups are submitted.
func (e *Engine) RunBatch(ctx context.Context) (*RunSummary, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer e.running.Store(false)
	e.stopRequested.Store(false)
	e.persistWarned.Store(false)

	runID := uuid.NewString()
	log := logging.WithRunID(e.logger, runID)
	lg := e.openRunLog(log)

	startedAt := time.Now()
	var results []RunResult
	var entries []runlog.Entry
	outputDir := ""

	appendResult := func(result RunResult, dir string) {
		results = append(results, result)
		outputDir = dir
		if lg != nil {
			entries = append(entries, toEntry(result))
			lg.Append(entries, dir)
		}
	}

	var videoIDs []string
	for _, id := range e.pendingIDs() {
		if e.stopRequested.Load() || ctx.Err() != nil {
			log.Info("run stopped between items")
			break
		}

		item := e.itemByID(id)
		if item == nil || item.Status != StatusPending {
			continue
		}
		if !item.Still {
			videoIDs = append(videoIDs, id)
			continue
		}

		// Stills go through the direct path.
		e.setStatus(ctx, id, StatusExporting)
		result := e.exportOne(ctx, item, log)
		if result.Success {
			e.setStatus(ctx, id, StatusCompleted)
		} else {
			e.setStatus(ctx, id, StatusFailed)
		}
		appendResult(result, item.OutputDir)
	}

	groups := e.groupBySnapshot(videoIDs)
	submitted := false
	for _, group := range groups {
		if e.stopRequested.Load() || ctx.Err() != nil {
			log.Info("run stopped between groups")
			break
		}

		if group.snapshot != nil {
			e.restoreSnapshot(ctx, group.snapshot, log)
		}

		batch := make([]host.BatchItem, 0, len(group.items))
		for _, item := range group.items {
			e.setStatus(ctx, item.ID, StatusExporting)
			batch = append(batch, host.BatchItem{
				SequenceName: item.SequenceName,
				StartTicks:   item.StartTicks,
				EndTicks:     item.EndTicks,
				UseInOut:     item.UseInOut,
				PresetPath:   item.PresetPath,
				OutputPath:   filepath.Join(item.OutputDir, item.ExpectedFilename),
			})
		}

		res, err := e.adapter.BatchEnqueue(ctx, batch)
		if err != nil {
			log.Warn("batch submission failed for group", "items", len(group.items), "error", err)
			for _, item := range group.items {
				e.setStatus(ctx, item.ID, StatusFailed)
				appendResult(RunResult{
					Filename:   item.ExpectedFilename,
					OutputPath: filepath.Join(item.OutputDir, item.ExpectedFilename),
					Error:      err.Error(),
				}, item.OutputDir)
			}
			continue
		}

		submitted = true
		if len(res.Errors) > 0 {
			log.Warn("batch accepted with errors", "queued", res.Queued, "errors", res.Errors)
		}
		for _, item := range group.items {
			// Completed here means accepted by the encoder queue, not
			// rendered; the engine does not track the encoder's progress.
			e.setStatus(ctx, item.ID, StatusCompleted)
			appendResult(RunResult{
				Filename:        item.ExpectedFilename,
				OutputPath:      filepath.Join(item.OutputDir, item.ExpectedFilename),
				SourceDurationS: item.SourceDurationSeconds(),
				Success:         true,
			}, item.OutputDir)
		}
	}

	if submitted {
		if err := e.adapter.StartBatch(ctx); err != nil {
			log.Warn("failed to start encoder batch", "error", err)
		}
	}

	summary := e.finishRun(ctx, runID, StrategyBatch, startedAt, results, outputDir, log)
	return summary, nil
}

// exportOne dispatches one item to the host: restore its snapshot, then
// render either a still frame or a ranged/whole-sequence direct export.
func (e *Engine) exportOne(ctx context.Context, item *Item, log *slog.Logger) RunResult {
	itemLog := logging.WithItemID(log, item.ID)

	if item.Snapshot != nil {
		e.restoreSnapshot(ctx, item.Snapshot, itemLog)
	}

	outputPath := filepath.Join(item.OutputDir, item.ExpectedFilename)
	started := time.Now()

	if item.Still {
		res, err := e.adapter.CaptureFrame(ctx, host.FrameRequest{
			SequenceName:    item.SequenceName,
			TimeTicks:       item.StartTicks,
			OutputPathNoExt: strings.TrimSuffix(outputPath, filepath.Ext(outputPath)),
		})
		if err != nil {
			itemLog.Warn("frame capture failed", "filename", item.ExpectedFilename, "error", err)
			return RunResult{Filename: item.ExpectedFilename, OutputPath: outputPath, Error: err.Error()}
		}
		itemLog.Info("frame captured", "path", res.OutputPath, "size_bytes", res.FileSizeBytes)
		return RunResult{
			Filename:        item.ExpectedFilename,
			OutputPath:      res.OutputPath,
			ExportDurationS: time.Since(started).Seconds(),
			SizeBytes:       res.FileSizeBytes,
			Success:         true,
		}
	}

	res, err := e.adapter.DirectExport(ctx, host.DirectExportRequest{
		SequenceName: item.SequenceName,
		StartTicks:   item.StartTicks,
		EndTicks:     item.EndTicks,
		UseInOut:     item.UseInOut,
		PresetPath:   item.PresetPath,
		OutputPath:   outputPath,
	})
	if err != nil {
		itemLog.Warn("direct export failed", "filename", item.ExpectedFilename, "error", err)
		return RunResult{Filename: item.ExpectedFilename, OutputPath: outputPath, Error: err.Error()}
	}

	elapsed := time.Since(started)
	itemLog.Info("item exported",
		"filename", item.ExpectedFilename,
		"size_bytes", res.FileSizeBytes,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return RunResult{
		Filename:        item.ExpectedFilename,
		OutputPath:      outputPath,
		SourceDurationS: item.SourceDurationSeconds(),
		ExportDurationS: elapsed.Seconds(),
		SizeBytes:       res.FileSizeBytes,
		Success:         true,
	}
}

func (e *Engine) restoreSnapshot(ctx context.Context, snap *visibility.Snapshot, log *slog.Logger) {
	report, err := e.adapter.RestoreVisibility(ctx, snap)
	if err != nil {
		log.Warn("visibility restore failed, exporting with current state", "error", err)
		return
	}
	if report.Stale() {
		log.Warn("visibility snapshot stale: timeline changed since capture",
			"fingerprint", snap.Fingerprint(),
			"applied", report.Applied,
			"skipped", report.Skipped,
		)
	}
	if report.Errors > 0 {
		log.Warn("some visibility flags could not be applied", "errors", report.Errors)
	}
}

func (e *Engine) collectCuts(ctx context.Context, item *Item, log *slog.Logger) []runlog.Cut {
	points, err := e.adapter.GetEditPoints(ctx, item.SequenceName, item.StartTicks, item.EndTicks)
	if err != nil {
		log.Warn("edit point lookup failed", "sequence", item.SequenceName, "error", err)
		return nil
	}
	cuts := make([]runlog.Cut, 0, len(points))
	for _, p := range points {
		cuts = append(cuts, runlog.Cut{
			Filename:      item.ExpectedFilename,
			SequenceName:  item.SequenceName,
			PositionTicks: p,
			PositionS:     host.TicksToSeconds(p),
		})
	}
	return cuts
}

type snapshotGroup struct {
	key      string
	snapshot *visibility.Snapshot
	items    []*Item
}

// groupBySnapshot buckets items by snapshot content in first-seen order.
// Structural equality is what matters here: two snapshots captured at
// different times with identical flags belong to the same group.
func (e *Engine) groupBySnapshot(ids []string) []*snapshotGroup {
	var groups []*snapshotGroup
	index := make(map[string]*snapshotGroup)
	for _, id := range ids {
		item := e.itemByID(id)
		if item == nil {
			continue
		}
		key := item.Snapshot.Key()
		group, ok := index[key]
		if !ok {
			group = &snapshotGroup{key: key, snapshot: item.Snapshot}
			index[key] = group
			groups = append(groups, group)
		}
		group.items = append(group.items, item)
	}
	return groups
}

func (e *Engine) finishRun(ctx context.Context, runID, strategy string, startedAt time.Time, results []RunResult, outputDir string, log *slog.Logger) *RunSummary {
	summary := &RunSummary{
		ID:         runID,
		ProjectKey: e.projectKey,
		Strategy:   strategy,
		StartedAt:  startedAt,
		TotalItems: len(results),
		OutputDir:  outputDir,
	}
	for _, r := range results {
		if r.Success {
			summary.SuccessCount++
		} else {
			summary.FailedCount++
		}
		summary.TotalDurationS += r.SourceDurationS
		summary.TotalSizeBytes += r.SizeBytes
	}

	if err := e.store.RecordRun(ctx, summary); err != nil {
		log.Warn("failed to record run history", "error", err)
	}

	log.Info("run finished",
		"strategy", strategy,
		"total", summary.TotalItems,
		"succeeded", summary.SuccessCount,
		"failed", summary.FailedCount,
	)

	e.schedulePrune()
	return summary
}

// schedulePrune removes completed items after the grace delay so the UI can
// show their final state briefly. Failed items are never pruned here.
func (e *Engine) schedulePrune() {
	if e.opts.PruneDelay <= 0 {
		e.pruneCompleted()
		return
	}
	time.AfterFunc(e.opts.PruneDelay, e.pruneCompleted)
}

func (e *Engine) pruneCompleted() {
	e.mu.Lock()
	kept := e.items[:0]
	removed := 0
	for _, item := range e.items {
		if item.Status == StatusCompleted {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	e.items = kept
	e.mu.Unlock()

	if removed > 0 {
		e.persist(context.Background())
	}
}

func (e *Engine) pendingIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.items))
	for _, item := range e.items {
		if item.Status == StatusPending {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

func (e *Engine) itemByID(id string) *Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, item := range e.items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

func (e *Engine) setStatus(ctx context.Context, id, status string) {
	e.mu.Lock()
	for _, item := range e.items {
		if item.ID == id {
			item.Status = status
			item.UpdatedAt = time.Now()
			break
		}
	}
	e.mu.Unlock()
	e.persist(ctx)
}

// persist overwrites the project's stored queue slice. The items handed to
// the store are value copies taken under the lock; live pointers must not
// escape while a run or a deferred prune is mutating them. Persistence
// failures are reported once per run and never abort exporting.
func (e *Engine) persist(ctx context.Context) {
	e.mu.Lock()
	items := make([]*Item, len(e.items))
	for i, item := range e.items {
		clone := *item
		items[i] = &clone
	}
	e.mu.Unlock()

	if err := e.store.Save(ctx, e.projectKey, items); err != nil {
		if !e.persistWarned.Swap(true) {
			e.logger.Warn("queue persistence failed, continuing in memory", "error", err)
		}
	}
}

func (e *Engine) openRunLog(log *slog.Logger) *runlog.Writer {
	lg, err := runlog.Open(e.opts.RunLogDir, e.projectKey, log)
	if err != nil {
		log.Warn("run log unavailable", "dir", e.opts.RunLogDir, "error", err)
		return nil
	}
	return lg
}

// filterMarkers applies the marker color allow-list. An empty list means no
// filtering.
func filterMarkers(sources []host.SourceItem, colors []string) []host.SourceItem {
	if len(colors) == 0 {
		return sources
	}
	allowed := make(map[string]bool, len(colors))
	for _, c := range colors {
		allowed[strings.ToLower(c)] = true
	}
	var out []host.SourceItem
	for _, src := range sources {
		if allowed[strings.ToLower(src.MarkerColor)] {
			out = append(out, src)
		}
	}
	return out
}

// expandMarkers turns marker points into export ranges ([marker-before,
// marker+after], clamped to sequence bounds) or leaves them as still-capture
// points when stills are requested.
func (e *Engine) expandMarkers(sources []host.SourceItem, req EnqueueRequest) []host.SourceItem {
	if req.MarkerStills {
		return sources
	}

	before := req.MarkerBefore
	if before <= 0 {
		before = e.opts.MarkerBefore
	}
	after := req.MarkerAfter
	if after <= 0 {
		after = e.opts.MarkerAfter
	}
	beforeTicks := host.SecondsToTicks(before.Seconds())
	afterTicks := host.SecondsToTicks(after.Seconds())

	out := make([]host.SourceItem, len(sources))
	var prevEnd int64 = -1
	for i, src := range sources {
		start := src.StartTicks - beforeTicks
		if start < 0 {
			start = 0
		}
		end := src.StartTicks + afterTicks
		if src.SequenceEndTicks > 0 && end > src.SequenceEndTicks {
			end = src.SequenceEndTicks
		}
		if prevEnd >= 0 && start < prevEnd {
			// Overlapping expansions export overlapping content; upstream
			// leaves this undefined, so it is allowed and only noted.
			e.logger.Debug("marker ranges overlap", "marker", src.MarkerName)
		}
		prevEnd = end

		src.StartTicks = start
		src.EndTicks = end
		src.HasRange = true
		out[i] = src
	}
	return out
}

// SaveQueueSnapshot stores the current pending slice under a name.
// Visibility snapshots are stripped; a reloaded queue renders whatever
// state exists when it next runs.
func (e *Engine) SaveQueueSnapshot(ctx context.Context, name string) (*SavedQueue, error) {
	e.mu.Lock()
	var items []*Item
	for _, item := range e.items {
		if item.Status != StatusPending {
			continue
		}
		clone := *item
		clone.Snapshot = nil
		items = append(items, &clone)
	}
	e.mu.Unlock()

	if len(items) == 0 {
		return nil, fmt.Errorf("no pending items to save")
	}

	if name == "" {
		name = "Queue - " + time.Now().Format("Jan 2 3:04 PM")
	}
	saved := &SavedQueue{
		ID:         uuid.NewString(),
		ProjectKey: e.projectKey,
		Name:       name,
		Items:      items,
		CreatedAt:  time.Now(),
	}
	if err := e.store.SaveQueueSnapshot(ctx, saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// LoadQueueSnapshot appends a saved queue's items back onto the live queue
// with fresh identities.
func (e *Engine) LoadQueueSnapshot(ctx context.Context, id string) (int, error) {
	saved, err := e.store.GetQueueSnapshot(ctx, id)
	if err != nil {
		return 0, err
	}
	if saved == nil {
		return 0, fmt.Errorf("saved queue not found")
	}
	if saved.ProjectKey != e.projectKey {
		return 0, fmt.Errorf("saved queue belongs to another project")
	}

	now := time.Now()
	e.mu.Lock()
	for _, item := range saved.Items {
		clone := *item
		clone.ID = uuid.NewString()
		clone.Status = StatusPending
		clone.Snapshot = nil
		clone.CreatedAt = now
		clone.UpdatedAt = now
		e.items = append(e.items, &clone)
	}
	count := len(saved.Items)
	e.mu.Unlock()

	e.persist(ctx)
	return count, nil
}

func toEntry(r RunResult) runlog.Entry {
	return runlog.Entry{
		Filename:        r.Filename,
		OutputPath:      r.OutputPath,
		SourceDurationS: r.SourceDurationS,
		ExportDurationS: r.ExportDurationS,
		SizeBytes:       r.SizeBytes,
		Success:         r.Success,
		Error:           r.Error,
	}
}
