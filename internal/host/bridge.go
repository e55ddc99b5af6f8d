package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jakecdahm/exporter/internal/visibility"
)

// BridgeClient talks to the editor-side bridge over HTTP. Each adapter call
// is one POST to /rpc/<method> with a JSON payload; the bridge replies with
// either the result object or {"error": "..."}.
type BridgeClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewBridgeClient(baseURL string, timeout time.Duration, logger *slog.Logger) *BridgeClient {
	return &BridgeClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *BridgeClient) call(ctx context.Context, method string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/rpc/%s", c.baseURL, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<22))
	if err != nil {
		return fmt.Errorf("bridge %s: read response: %w", method, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &AdapterError{Op: method, Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncate(string(respBody), 512))}
	}

	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(respBody, &probe); err == nil && probe.Error != "" {
		return &AdapterError{Op: method, Message: probe.Error}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("bridge %s: decode response: %w", method, err)
		}
	}
	return nil
}

func (c *BridgeClient) ProjectName(ctx context.Context) (string, error) {
	var out struct {
		Name string `json:"name"`
	}
	if err := c.call(ctx, "project_name", struct{}{}, &out); err != nil {
		return "", err
	}
	if out.Name == "" {
		out.Name = "default"
	}
	return out.Name, nil
}

func (c *BridgeClient) GetQueueInfo(ctx context.Context, mode Mode) ([]SourceItem, error) {
	payload := struct {
		Mode Mode `json:"mode"`
	}{Mode: mode}
	var out struct {
		Items []SourceItem `json:"items"`
	}
	if err := c.call(ctx, "get_queue_info", payload, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *BridgeClient) CaptureVisibility(ctx context.Context) (*visibility.Snapshot, error) {
	var out visibility.Snapshot
	if err := c.call(ctx, "capture_visibility", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BridgeClient) RestoreVisibility(ctx context.Context, snap *visibility.Snapshot) (visibility.Report, error) {
	var out visibility.Report
	if err := c.call(ctx, "restore_visibility", snap, &out); err != nil {
		return visibility.Report{}, err
	}
	return out, nil
}

func (c *BridgeClient) DirectExport(ctx context.Context, req DirectExportRequest) (DirectExportResult, error) {
	start := time.Now()
	var out DirectExportResult
	if err := c.call(ctx, "direct_export", req, &out); err != nil {
		return DirectExportResult{}, err
	}
	c.logger.Debug("direct export returned",
		"sequence", req.SequenceName,
		"output", req.OutputPath,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (c *BridgeClient) BatchEnqueue(ctx context.Context, items []BatchItem) (BatchResult, error) {
	payload := struct {
		Items []BatchItem `json:"items"`
	}{Items: items}
	var out BatchResult
	if err := c.call(ctx, "batch_enqueue", payload, &out); err != nil {
		return BatchResult{}, err
	}
	return out, nil
}

func (c *BridgeClient) StartBatch(ctx context.Context) error {
	return c.call(ctx, "start_batch", struct{}{}, nil)
}

func (c *BridgeClient) CaptureFrame(ctx context.Context, req FrameRequest) (FrameResult, error) {
	var out FrameResult
	if err := c.call(ctx, "capture_frame", req, &out); err != nil {
		return FrameResult{}, err
	}
	return out, nil
}

func (c *BridgeClient) GetEditPoints(ctx context.Context, sequenceName string, startTicks, endTicks int64) ([]int64, error) {
	payload := struct {
		SequenceName string `json:"sequence_name"`
		StartTicks   int64  `json:"start_ticks"`
		EndTicks     int64  `json:"end_ticks"`
	}{sequenceName, startTicks, endTicks}
	var out struct {
		CutPositions []int64 `json:"cut_positions"`
	}
	if err := c.call(ctx, "get_edit_points", payload, &out); err != nil {
		return nil, err
	}
	return out.CutPositions, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
