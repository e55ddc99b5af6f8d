package host

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jakecdahm/exporter/internal/visibility"
)

func testBridge(t *testing.T, handler http.HandlerFunc) *BridgeClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBridgeClient(srv.URL, 5*time.Second, logger)
}

func TestBridge_GetQueueInfo(t *testing.T) {
	client := testBridge(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rpc/get_queue_info" {
			t.Errorf("path = %q, want /rpc/get_queue_info", r.URL.Path)
		}
		var payload struct {
			Mode Mode `json:"mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload.Mode != ModeMarkers {
			t.Errorf("mode = %q, want markers", payload.Mode)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []SourceItem{
				{SequenceName: "Seq", MarkerName: "beat", MarkerColor: "Red", StartTicks: 100, EndTicks: 100},
			},
		})
	})

	items, err := client.GetQueueInfo(context.Background(), ModeMarkers)
	if err != nil {
		t.Fatalf("GetQueueInfo() error = %v", err)
	}
	if len(items) != 1 || items[0].MarkerName != "beat" {
		t.Fatalf("items = %+v", items)
	}
}

func TestBridge_ErrorResponse(t *testing.T) {
	client := testBridge(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "no project open"})
	})

	_, err := client.ProjectName(context.Background())
	if err == nil {
		t.Fatal("expected error from bridge error payload")
	}
	var adapterErr *AdapterError
	if !errors.As(err, &adapterErr) {
		t.Fatalf("error type = %T, want *AdapterError", err)
	}
	if adapterErr.Message != "no project open" {
		t.Fatalf("message = %q", adapterErr.Message)
	}
}

func TestBridge_HTTPError(t *testing.T) {
	client := testBridge(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bridge not ready", http.StatusServiceUnavailable)
	})

	err := client.StartBatch(context.Background())
	var adapterErr *AdapterError
	if !errors.As(err, &adapterErr) {
		t.Fatalf("error = %v, want *AdapterError", err)
	}
	if adapterErr.Op != "start_batch" {
		t.Fatalf("op = %q, want start_batch", adapterErr.Op)
	}
}

func TestBridge_RestoreVisibilityRoundTrip(t *testing.T) {
	client := testBridge(t, func(w http.ResponseWriter, r *http.Request) {
		var snap visibility.Snapshot
		if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
			t.Errorf("decode snapshot: %v", err)
		}
		if len(snap.VideoTracks) != 1 {
			t.Errorf("snapshot tracks = %d, want 1", len(snap.VideoTracks))
		}
		json.NewEncoder(w).Encode(visibility.Report{Applied: 2, Skipped: 1})
	})

	report, err := client.RestoreVisibility(context.Background(), &visibility.Snapshot{
		VideoTracks: []visibility.VideoTrack{{Muted: true, ClipsEnabled: []bool{false}}},
	})
	if err != nil {
		t.Fatalf("RestoreVisibility() error = %v", err)
	}
	if report.Applied != 2 || report.Skipped != 1 {
		t.Fatalf("report = %+v, want applied 2 skipped 1", report)
	}
	if !report.Stale() {
		t.Fatal("report with skipped flags should be stale")
	}
}

func TestBridge_ContextCancellation(t *testing.T) {
	block := make(chan struct{})
	client := testBridge(t, func(w http.ResponseWriter, r *http.Request) {
		<-block
	})
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ProjectName(ctx)
	if err == nil {
		t.Fatal("expected error after context deadline")
	}
}
