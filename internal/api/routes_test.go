package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jakecdahm/exporter/internal/db"
	"github.com/jakecdahm/exporter/internal/host"
	"github.com/jakecdahm/exporter/internal/queue"
)

func testRouter(t *testing.T, fake *host.Fake) (http.Handler, *queue.Engine) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	store := queue.NewStore(database.Conn())

	engine := queue.NewEngine(fake, store, "proj", queue.Options{
		RunLogDir: t.TempDir(),
	}, logger)

	router := NewRouter(ServerConfig{
		Port:      0,
		Engine:    engine,
		Store:     store,
		Logger:    logger,
		StartTime: time.Now(),
		Version:   "test",
	})
	return router, engine
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v\n%s", err, rr.Body.String())
	}
	return body
}

func TestHealthHandler(t *testing.T) {
	router, _ := testRouter(t, host.NewFake("proj"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["status"] != "ok" {
		t.Fatalf("status = %v, want ok", body["status"])
	}
	if body["project"] != "proj" {
		t.Fatalf("project = %v, want proj", body["project"])
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID header")
	}
}

func TestEnqueueHandler(t *testing.T) {
	fake := host.NewFake("proj")
	fake.Items[host.ModeClips] = []host.SourceItem{
		{SequenceName: "Seq", ClipName: "a", EndTicks: host.SecondsToTicks(5), HasRange: true},
	}
	router, _ := testRouter(t, fake)

	payload := `{"mode":"clips","preset_path":"/h264.epr","output_dir":"/out"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/queue/items", strings.NewReader(payload)))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status code = %d, want %d\n%s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	body := decodeJSONBody(t, rr)
	if body["added"].(float64) != 1 {
		t.Fatalf("added = %v, want 1", body["added"])
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/queue", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /queue status = %d, want 200", rr.Code)
	}
	var queueResp QueueResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &queueResp); err != nil {
		t.Fatalf("invalid queue response: %v", err)
	}
	if len(queueResp.Items) != 1 || queueResp.Items[0].Status != "pending" {
		t.Fatalf("queue response = %+v, want one pending item", queueResp.Items)
	}
}

func TestEnqueueHandler_Validation(t *testing.T) {
	router, _ := testRouter(t, host.NewFake("proj"))

	tests := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{`},
		{"unknown mode", `{"mode":"frames","preset_path":"/p.epr","output_dir":"/out"}`},
		{"missing output dir", `{"mode":"clips","preset_path":"/p.epr"}`},
		{"missing preset", `{"mode":"clips","output_dir":"/out"}`},
		{"no sources", `{"mode":"clips","preset_path":"/p.epr","output_dir":"/out"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/queue/items", strings.NewReader(tt.payload)))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestRemoveItemHandler(t *testing.T) {
	fake := host.NewFake("proj")
	fake.Items[host.ModeClips] = []host.SourceItem{
		{SequenceName: "Seq", ClipName: "a", EndTicks: host.SecondsToTicks(5), HasRange: true},
	}
	router, engine := testRouter(t, fake)

	payload := `{"mode":"clips","preset_path":"/h264.epr","output_dir":"/out"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/queue/items", strings.NewReader(payload)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("enqueue status = %d", rr.Code)
	}

	id := engine.Items()[0].ID
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/queue/items/"+id, nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rr.Code, http.StatusNoContent)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/queue/items/"+id, nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("repeat delete status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestStatusHandler(t *testing.T) {
	router, _ := testRouter(t, host.NewFake("proj"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rr.Code)
	}
	body := decodeJSONBody(t, rr)
	if body["running"] != false {
		t.Fatalf("running = %v, want false", body["running"])
	}
}

func TestSavedQueueLifecycle(t *testing.T) {
	fake := host.NewFake("proj")
	fake.Items[host.ModeClips] = []host.SourceItem{
		{SequenceName: "Seq", ClipName: "a", EndTicks: host.SecondsToTicks(5), HasRange: true},
	}
	router, engine := testRouter(t, fake)

	payload := `{"mode":"clips","preset_path":"/h264.epr","output_dir":"/out"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/queue/items", strings.NewReader(payload)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("enqueue status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/saved-queues", strings.NewReader(`{"name":"selects"}`)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("save status = %d, want 201\n%s", rr.Code, rr.Body.String())
	}
	var saved SavedQueueResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &saved); err != nil {
		t.Fatalf("invalid save response: %v", err)
	}
	if saved.Name != "selects" || saved.ItemCount != 1 {
		t.Fatalf("saved = %+v", saved)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/queue", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/saved-queues/"+saved.ID+"/load", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("load status = %d, want 200\n%s", rr.Code, rr.Body.String())
	}
	if len(engine.Items()) != 1 {
		t.Fatalf("queue has %d items after load, want 1", len(engine.Items()))
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/saved-queues/"+saved.ID, nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/saved-queues", nil))
	var list SavedQueuesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("invalid list response: %v", err)
	}
	if len(list.SavedQueues) != 0 {
		t.Fatalf("saved queues remaining = %d, want 0", len(list.SavedQueues))
	}
}

func TestHistoryHandler_Empty(t *testing.T) {
	router, _ := testRouter(t, host.NewFake("proj"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/history", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rr.Code)
	}
	var resp HistoryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid history response: %v", err)
	}
	if len(resp.Runs) != 0 {
		t.Fatalf("history = %d runs, want 0", len(resp.Runs))
	}
}

func TestStopHandler(t *testing.T) {
	router, _ := testRouter(t, host.NewFake("proj"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/runs/stop", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("stop status = %d, want %d", rr.Code, http.StatusNoContent)
	}
}
