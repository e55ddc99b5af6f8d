package runlog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testWriter(t *testing.T, project string) *Writer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := Open(t.TempDir(), project, logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return w
}

func TestAppend_FullRewrite(t *testing.T) {
	w := testWriter(t, "My Film")

	first := []Entry{{Filename: "001 - Seq.mp4", Success: true, SourceDurationS: 10, SizeBytes: 2048}}
	w.Append(first, "/out")

	data, err := os.ReadFile(w.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "# Items: 1  Succeeded: 1  Failed: 0") {
		t.Fatalf("header summary wrong after first item:\n%s", content)
	}
	if !strings.Contains(content, "001 - Seq.mp4") {
		t.Fatalf("missing first row:\n%s", content)
	}

	second := append(first, Entry{Filename: "002 - Seq.mp4", Error: "encoder rejected preset"})
	w.Append(second, "/out")

	data, err = os.ReadFile(w.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content = string(data)
	if !strings.Contains(content, "# Items: 2  Succeeded: 1  Failed: 1") {
		t.Fatalf("header summary not rewritten:\n%s", content)
	}
	if !strings.Contains(content, "002 - Seq.mp4,failed") {
		t.Fatalf("missing failed row:\n%s", content)
	}
	if !strings.Contains(content, "encoder rejected preset") {
		t.Fatalf("missing error column:\n%s", content)
	}
	// Still exactly one header line per rewrite.
	if strings.Count(content, "# Export Run Log") != 1 {
		t.Fatalf("log was appended instead of rewritten:\n%s", content)
	}
}

func TestAppend_WriteFailureWarnedOnce(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	w, err := Open(t.TempDir(), "proj", logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	// Point the writer at an unwritable location.
	w.path = filepath.Join(w.path, "nested", "impossible.csv")

	w.Append([]Entry{{Filename: "a.mp4", Success: true}}, "/out")
	w.Append([]Entry{{Filename: "a.mp4", Success: true}}, "/out")

	warnings := strings.Count(buf.String(), "run log write failed")
	if warnings != 1 {
		t.Fatalf("write failure warned %d times, want exactly once", warnings)
	}
}

func TestOpen_FilenameSanitized(t *testing.T) {
	w := testWriter(t, `Client: Promo / Final?`)
	base := filepath.Base(w.Path())
	if strings.ContainsAny(base, `\/:*?"<>|`) {
		t.Fatalf("log filename %q contains illegal characters", base)
	}
	if !strings.HasSuffix(base, ".csv") {
		t.Fatalf("log filename %q missing .csv suffix", base)
	}
}

func TestWriteCutSheet(t *testing.T) {
	w := testWriter(t, "proj")

	if err := w.WriteCutSheet(nil); err != nil {
		t.Fatalf("WriteCutSheet(empty) error = %v", err)
	}

	cuts := []Cut{
		{Filename: "001 - Seq.mp4", SequenceName: "Seq", PositionTicks: 254016000000, PositionS: 1},
		{Filename: "001 - Seq.mp4", SequenceName: "Seq", PositionTicks: 508032000000, PositionS: 2},
	}
	if err := w.WriteCutSheet(cuts); err != nil {
		t.Fatalf("WriteCutSheet() error = %v", err)
	}

	path := strings.TrimSuffix(w.Path(), ".csv") + ".cuts.csv"
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("cut sheet has %d lines, want header plus 2 rows", len(lines))
	}
}
