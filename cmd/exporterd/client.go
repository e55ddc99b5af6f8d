package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakecdahm/exporter/internal/api"
	"github.com/jakecdahm/exporter/internal/config"
)

var flagAddr string

// newClientCommands builds the CLI verbs that drive a running daemon over
// its local HTTP API.
func newClientCommands() []*cobra.Command {
	var (
		mode     string
		preset   string
		name     string
		outDir   string
		template string
		colors   []string
		stills   bool
	)

	enqueueCmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Add the host's current selection to the queue",
		RunE: func(_ *cobra.Command, _ []string) error {
			var resp api.EnqueueResponse
			err := postJSON("/queue/items", api.EnqueueRequest{
				Mode:         mode,
				PresetPath:   preset,
				PresetName:   name,
				OutputDir:    outDir,
				Template:     template,
				MarkerColors: colors,
				MarkerStills: stills,
			}, &resp)
			if err != nil {
				return err
			}
			if resp.NoMatch {
				fmt.Println("No markers matched the color filter; nothing added")
				return nil
			}
			fmt.Printf("Added %d item(s)\n", resp.Added)
			return nil
		},
	}
	enqueueCmd.Flags().StringVar(&mode, "mode", "clips", "Source mode: clips, sequences, or markers")
	enqueueCmd.Flags().StringVar(&preset, "preset", "", "Path to the encoder preset")
	enqueueCmd.Flags().StringVar(&name, "preset-name", "", "Display name for the preset")
	enqueueCmd.Flags().StringVar(&outDir, "out", "", "Output directory")
	enqueueCmd.Flags().StringVar(&template, "template", "", "Filename template (defaults to the server's)")
	enqueueCmd.Flags().StringSliceVar(&colors, "colors", nil, "Marker color filter")
	enqueueCmd.Flags().BoolVar(&stills, "stills", false, "Capture still frames at markers instead of ranges")

	runCmd := &cobra.Command{
		Use:   "run [direct|batch]",
		Short: "Start an export pass over pending items",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			strategy := "direct"
			if len(args) == 1 {
				strategy = args[0]
			}
			if strategy != "direct" && strategy != "batch" {
				return fmt.Errorf("unknown strategy %q", strategy)
			}
			var resp api.RunResponse
			if err := postJSON("/runs/"+strategy, struct{}{}, &resp); err != nil {
				return err
			}
			fmt.Printf("Run started (%s)\n", resp.Strategy)
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the current run between items",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := postJSON("/runs/stop", struct{}{}, nil); err != nil {
				return err
			}
			fmt.Println("Stop requested")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(_ *cobra.Command, _ []string) error {
			var resp api.StatusResponse
			if err := getJSON("/status", &resp); err != nil {
				return err
			}
			state := "idle"
			if resp.Running {
				state = "running"
			}
			fmt.Printf("Project:   %s\n", resp.Project)
			fmt.Printf("State:     %s\n", state)
			fmt.Printf("Pending:   %d\n", resp.Pending)
			fmt.Printf("Exporting: %d\n", resp.Exporting)
			fmt.Printf("Completed: %d\n", resp.Completed)
			fmt.Printf("Failed:    %d\n", resp.Failed)
			return nil
		},
	}

	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "List queued items",
		RunE: func(_ *cobra.Command, _ []string) error {
			var resp api.QueueResponse
			if err := getJSON("/queue", &resp); err != nil {
				return err
			}
			if len(resp.Items) == 0 {
				fmt.Println("Queue is empty")
				return nil
			}
			for i, item := range resp.Items {
				fmt.Printf("%3d  [%-9s]  %s\n", i+1, item.Status, item.ExpectedFilename)
			}
			return nil
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		RunE: func(_ *cobra.Command, _ []string) error {
			var resp api.HistoryResponse
			if err := getJSON("/history", &resp); err != nil {
				return err
			}
			if len(resp.Runs) == 0 {
				fmt.Println("No runs recorded")
				return nil
			}
			for _, run := range resp.Runs {
				fmt.Printf("%s  %-6s  %d/%d ok  %s\n",
					run.StartedAt, run.Strategy, run.SuccessCount, run.TotalItems, run.OutputDir)
			}
			return nil
		},
	}

	cmds := []*cobra.Command{enqueueCmd, runCmd, stopCmd, statusCmd, queueCmd, historyCmd}
	for _, c := range cmds {
		c.Flags().StringVar(&flagAddr, "addr", fmt.Sprintf("http://127.0.0.1:%d", config.DefaultPort), "Daemon address")
	}
	return cmds
}

func getJSON(path string, out interface{}) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(flagAddr + path)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", flagAddr, err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func postJSON(path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(flagAddr+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", flagAddr, err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode >= 400 {
		var apiErr api.ErrorResponse
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
