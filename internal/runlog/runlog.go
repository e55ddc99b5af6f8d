// Package runlog writes the per-run export log. The log is rewritten in
// full after every item completes, so a crash mid-run still leaves a
// complete, parsable record of everything exported so far.
package runlog

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one logged item outcome.
type Entry struct {
	Filename        string
	OutputPath      string
	SourceDurationS float64
	ExportDurationS float64
	SizeBytes       int64
	Success         bool
	Error           string
}

// Writer maintains one run's log file. Write failures are reported once
// through the logger and then swallowed: bookkeeping never aborts a run.
type Writer struct {
	path        string
	projectName string
	startedAt   time.Time
	logger      *slog.Logger
	warned      bool
}

// Open prepares a log file for a new run, creating the directory if absent.
// The filename is derived from the project name and the run start time.
func Open(dir, projectName string, logger *slog.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create run log directory: %w", err)
	}

	startedAt := time.Now()
	name := fmt.Sprintf("%s_%s.csv", sanitizeFileSegment(projectName), startedAt.Format("2006-01-02_15-04-05"))

	return &Writer{
		path:        filepath.Join(dir, name),
		projectName: projectName,
		startedAt:   startedAt,
		logger:      logger,
	}, nil
}

// Path returns the log file location.
func (w *Writer) Path() string {
	return w.path
}

// Append rewrites the full log file: a header summary block followed by one
// CSV row per item processed so far.
func (w *Writer) Append(entries []Entry, outputDir string) {
	var succeeded, failed int
	var totalDuration float64
	var totalSize int64
	for _, e := range entries {
		if e.Success {
			succeeded++
		} else {
			failed++
		}
		totalDuration += e.SourceDurationS
		totalSize += e.SizeBytes
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Export Run Log\n")
	fmt.Fprintf(&b, "# Project: %s\n", w.projectName)
	fmt.Fprintf(&b, "# Started: %s\n", w.startedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "# Items: %d  Succeeded: %d  Failed: %d\n", len(entries), succeeded, failed)
	fmt.Fprintf(&b, "# Total Source Duration (s): %.2f\n", totalDuration)
	fmt.Fprintf(&b, "# Total Size (bytes): %d\n", totalSize)
	fmt.Fprintf(&b, "# Output Directory: %s\n", outputDir)

	cw := csv.NewWriter(&b)
	_ = cw.Write([]string{"index", "filename", "status", "source_duration_s", "export_duration_s", "size_bytes", "error"})
	for i, e := range entries {
		status := "completed"
		if !e.Success {
			status = "failed"
		}
		_ = cw.Write([]string{
			strconv.Itoa(i + 1),
			e.Filename,
			status,
			strconv.FormatFloat(e.SourceDurationS, 'f', 2, 64),
			strconv.FormatFloat(e.ExportDurationS, 'f', 2, 64),
			strconv.FormatInt(e.SizeBytes, 10),
			e.Error,
		})
	}
	cw.Flush()

	if err := os.WriteFile(w.path, []byte(b.String()), 0o644); err != nil {
		if !w.warned && w.logger != nil {
			w.logger.Warn("run log write failed, continuing without log", "path", w.path, "error", err)
			w.warned = true
		}
	}
}

// Cut is one edit point inside an exported range, for the companion cut
// sheet.
type Cut struct {
	Filename      string
	SequenceName  string
	PositionTicks int64
	PositionS     float64
}

// WriteCutSheet writes the companion cut-sheet CSV next to the run log.
func (w *Writer) WriteCutSheet(cuts []Cut) error {
	if len(cuts) == 0 {
		return nil
	}

	path := strings.TrimSuffix(w.path, ".csv") + ".cuts.csv"
	var b strings.Builder
	cw := csv.NewWriter(&b)
	_ = cw.Write([]string{"filename", "sequence", "position_ticks", "position_s"})
	for _, c := range cuts {
		_ = cw.Write([]string{
			c.Filename,
			c.SequenceName,
			strconv.FormatInt(c.PositionTicks, 10),
			strconv.FormatFloat(c.PositionS, 'f', 3, 64),
		})
	}
	cw.Flush()

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write cut sheet: %w", err)
	}
	return nil
}

func sanitizeFileSegment(s string) string {
	if s == "" {
		return "untitled"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}
