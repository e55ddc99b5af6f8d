package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jakecdahm/exporter/internal/visibility"
)

const (
	// MaxSavedQueues caps named queue saves per project; the oldest save is
	// evicted when the cap is exceeded.
	MaxSavedQueues = 20

	// MaxHistoryEntries caps run history entries per project.
	MaxHistoryEntries = 50
)

// Store persists queue state scoped by project key. Queues for different
// projects never merge. At most one concurrent writer is assumed (the single
// orchestrating engine), matching the sqlite single-connection setup.
type Store interface {
	Load(ctx context.Context, projectKey string) ([]*Item, error)
	Save(ctx context.Context, projectKey string, items []*Item) error

	SaveQueueSnapshot(ctx context.Context, saved *SavedQueue) error
	ListQueueSnapshots(ctx context.Context, projectKey string) ([]*SavedQueue, error)
	GetQueueSnapshot(ctx context.Context, id string) (*SavedQueue, error)
	DeleteQueueSnapshot(ctx context.Context, id string) error

	RecordRun(ctx context.Context, summary *RunSummary) error
	ListRuns(ctx context.Context, projectKey string, limit int) ([]*RunSummary, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

// SQLiteStore implements Store on the embedded sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load restores the persisted queue for one project. Items found in the
// `exporting` state were interrupted by a crash mid-export and come back as
// `pending`; items already terminal at save time are dropped entirely.
func (s *SQLiteStore) Load(ctx context.Context, projectKey string) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sequence_name, clip_name, clip_index, marker_name, marker_index, marker_color,
		       start_ticks, end_ticks, use_in_out, still, output_dir, expected_filename,
		       preset_path, preset_name, snapshot, status, created_at, updated_at
		FROM queue_items WHERE project_key = ? ORDER BY position
	`, projectKey)
	if err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		if item.Status == StatusExporting {
			item.Status = StatusPending
		}
		if item.Status != StatusPending {
			continue
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load queue: %w", err)
	}
	return items, nil
}

// Save overwrites the project's entire queue slice. Called after every
// queue mutation so a crash at any point restores a consistent queue.
func (s *SQLiteStore) Save(ctx context.Context, projectKey string, items []*Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save queue: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM queue_items WHERE project_key = ?`, projectKey); err != nil {
		return fmt.Errorf("save queue: %w", err)
	}

	for pos, item := range items {
		snapshot, err := marshalSnapshot(item.Snapshot)
		if err != nil {
			return fmt.Errorf("save queue item %s: %w", item.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO queue_items (
				id, project_key, position, sequence_name, clip_name, clip_index,
				marker_name, marker_index, marker_color, start_ticks, end_ticks,
				use_in_out, still, output_dir, expected_filename, preset_path,
				preset_name, snapshot, status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, item.ID, projectKey, pos, item.SequenceName, nullString(item.ClipName), item.ClipIndex,
			nullString(item.MarkerName), item.MarkerIndex, nullString(item.MarkerColor),
			item.StartTicks, item.EndTicks, boolToInt(item.UseInOut), boolToInt(item.Still),
			item.OutputDir, item.ExpectedFilename, item.PresetPath, item.PresetName,
			snapshot, item.Status, item.CreatedAt.Format(time.RFC3339Nano), item.UpdatedAt.Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("save queue item %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// SaveQueueSnapshot stores a named save of the pending queue slice,
// evicting the oldest saves beyond the per-project cap.
func (s *SQLiteStore) SaveQueueSnapshot(ctx context.Context, saved *SavedQueue) error {
	items, err := json.Marshal(saved.Items)
	if err != nil {
		return fmt.Errorf("save queue snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save queue snapshot: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO saved_queues (id, project_key, name, items, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, saved.ID, saved.ProjectKey, saved.Name, string(items), saved.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save queue snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM saved_queues WHERE project_key = ? AND id NOT IN (
			SELECT id FROM saved_queues WHERE project_key = ?
			ORDER BY created_at DESC LIMIT ?
		)
	`, saved.ProjectKey, saved.ProjectKey, MaxSavedQueues)
	if err != nil {
		return fmt.Errorf("evict queue snapshots: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) ListQueueSnapshots(ctx context.Context, projectKey string) ([]*SavedQueue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_key, name, items, created_at
		FROM saved_queues WHERE project_key = ? ORDER BY created_at DESC
	`, projectKey)
	if err != nil {
		return nil, fmt.Errorf("list queue snapshots: %w", err)
	}
	defer rows.Close()

	var saves []*SavedQueue
	for rows.Next() {
		saved, err := scanSavedQueue(rows)
		if err != nil {
			return nil, err
		}
		saves = append(saves, saved)
	}
	return saves, rows.Err()
}

func (s *SQLiteStore) GetQueueSnapshot(ctx context.Context, id string) (*SavedQueue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_key, name, items, created_at
		FROM saved_queues WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get queue snapshot: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanSavedQueue(rows)
}

func (s *SQLiteStore) DeleteQueueSnapshot(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM saved_queues WHERE id = ?`, id)
	return err
}

// RecordRun appends one run summary to the history, evicting the oldest
// entries beyond the cap.
func (s *SQLiteStore) RecordRun(ctx context.Context, summary *RunSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO run_history (
			id, project_key, strategy, started_at, total_items, success_count,
			failed_count, total_duration_s, total_size_bytes, output_dir
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, summary.ID, summary.ProjectKey, summary.Strategy, summary.StartedAt.Format(time.RFC3339Nano),
		summary.TotalItems, summary.SuccessCount, summary.FailedCount,
		summary.TotalDurationS, summary.TotalSizeBytes, summary.OutputDir)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM run_history WHERE project_key = ? AND id NOT IN (
			SELECT id FROM run_history WHERE project_key = ?
			ORDER BY started_at DESC LIMIT ?
		)
	`, summary.ProjectKey, summary.ProjectKey, MaxHistoryEntries)
	if err != nil {
		return fmt.Errorf("evict run history: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) ListRuns(ctx context.Context, projectKey string, limit int) ([]*RunSummary, error) {
	if limit <= 0 || limit > MaxHistoryEntries {
		limit = MaxHistoryEntries
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_key, strategy, started_at, total_items, success_count,
		       failed_count, total_duration_s, total_size_bytes, output_dir
		FROM run_history WHERE project_key = ?
		ORDER BY started_at DESC LIMIT ?
	`, projectKey, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunSummary
	for rows.Next() {
		var r RunSummary
		var startedAt string
		if err := rows.Scan(&r.ID, &r.ProjectKey, &r.Strategy, &startedAt, &r.TotalItems,
			&r.SuccessCount, &r.FailedCount, &r.TotalDurationS, &r.TotalSizeBytes, &r.OutputDir); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var item Item
	var clipName, markerName, markerColor, snapshot sql.NullString
	var useInOut, still int
	var createdAt, updatedAt string

	err := row.Scan(&item.ID, &item.SequenceName, &clipName, &item.ClipIndex,
		&markerName, &item.MarkerIndex, &markerColor,
		&item.StartTicks, &item.EndTicks, &useInOut, &still,
		&item.OutputDir, &item.ExpectedFilename, &item.PresetPath, &item.PresetName,
		&snapshot, &item.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan queue item: %w", err)
	}

	item.ClipName = clipName.String
	item.MarkerName = markerName.String
	item.MarkerColor = markerColor.String
	item.UseInOut = useInOut == 1
	item.Still = still == 1
	item.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	item.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	if snapshot.Valid && snapshot.String != "" {
		var snap visibility.Snapshot
		if err := json.Unmarshal([]byte(snapshot.String), &snap); err != nil {
			return nil, fmt.Errorf("decode snapshot for item %s: %w", item.ID, err)
		}
		item.Snapshot = &snap
	}

	return &item, nil
}

func scanSavedQueue(row rowScanner) (*SavedQueue, error) {
	var saved SavedQueue
	var items, createdAt string
	if err := row.Scan(&saved.ID, &saved.ProjectKey, &saved.Name, &items, &createdAt); err != nil {
		return nil, fmt.Errorf("scan saved queue: %w", err)
	}
	if err := json.Unmarshal([]byte(items), &saved.Items); err != nil {
		return nil, fmt.Errorf("decode saved queue %s: %w", saved.ID, err)
	}
	saved.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &saved, nil
}

func marshalSnapshot(snap *visibility.Snapshot) (sql.NullString, error) {
	if snap == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
