package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jakecdahm/exporter/internal/host"
	"github.com/jakecdahm/exporter/internal/queue"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Get("/status", statusHandler(cfg))

	r.Get("/queue", listQueueHandler(cfg))
	r.Post("/queue/items", enqueueHandler(cfg))
	r.Delete("/queue/items/{id}", removeItemHandler(cfg))
	r.Delete("/queue", clearQueueHandler(cfg))

	r.Post("/runs/direct", runHandler(cfg, queue.StrategyDirect))
	r.Post("/runs/batch", runHandler(cfg, queue.StrategyBatch))
	r.Post("/runs/stop", stopHandler(cfg))
	r.Get("/history", historyHandler(cfg))

	r.Get("/saved-queues", listSavedQueuesHandler(cfg))
	r.Post("/saved-queues", saveQueueHandler(cfg))
	r.Post("/saved-queues/{id}/load", loadSavedQueueHandler(cfg))
	r.Delete("/saved-queues/{id}", deleteSavedQueueHandler(cfg))

	r.Get("/recent-dirs", recentDirsHandler(cfg))
	r.Get("/preset-slots", listPresetSlotsHandler(cfg))
	r.Put("/preset-slots/{slot}", setPresetSlotHandler(cfg))

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
			Project: cfg.Engine.ProjectKey(),
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts := cfg.Engine.Status()
		WriteJSON(w, http.StatusOK, StatusResponse{
			Project:   cfg.Engine.ProjectKey(),
			Running:   counts.Running,
			Pending:   counts.Pending,
			Exporting: counts.Exporting,
			Completed: counts.Completed,
			Failed:    counts.Failed,
		})
	}
}

func listQueueHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := cfg.Engine.Items()
		resp := QueueResponse{Items: make([]ItemResponse, len(items))}
		for i := range items {
			resp.Items[i] = ItemToResponse(&items[i])
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func enqueueHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EnqueueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		mode := host.Mode(req.Mode)
		switch mode {
		case "", host.ModeClips, host.ModeSequences, host.ModeMarkers:
		default:
			WriteError(w, http.StatusBadRequest, "unknown mode: "+req.Mode, "BAD_REQUEST")
			return
		}

		outcome, err := cfg.Engine.Enqueue(r.Context(), queue.EnqueueRequest{
			Mode:         mode,
			PresetPath:   req.PresetPath,
			PresetName:   req.PresetName,
			OutputDir:    req.OutputDir,
			Template:     req.Template,
			MarkerColors: req.MarkerColors,
			MarkerStills: req.MarkerStills,
			MarkerBefore: time.Duration(req.MarkerBeforeS * float64(time.Second)),
			MarkerAfter:  time.Duration(req.MarkerAfterS * float64(time.Second)),
		})
		if err != nil {
			switch {
			case errors.Is(err, queue.ErrNoOutputDir),
				errors.Is(err, queue.ErrNoPreset),
				errors.Is(err, queue.ErrNoSource):
				WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			default:
				WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			}
			return
		}

		WriteJSON(w, http.StatusCreated, EnqueueResponse{Added: outcome.Added, NoMatch: outcome.NoMatch})
	}
}

func removeItemHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "item id required", "BAD_REQUEST")
			return
		}
		if cfg.Engine.Status().Running {
			WriteError(w, http.StatusConflict, "a run is in progress", "RUN_IN_PROGRESS")
			return
		}
		if !cfg.Engine.Remove(r.Context(), id) {
			WriteError(w, http.StatusNotFound, "item not found", "NOT_FOUND")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func clearQueueHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Engine.Status().Running {
			WriteError(w, http.StatusConflict, "a run is in progress", "RUN_IN_PROGRESS")
			return
		}
		cfg.Engine.Clear(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}
}

// runHandler kicks off an export pass in the background and acknowledges
// immediately. The engine itself is the authority on concurrent runs; the
// up-front Running check just gives callers a clean 409 instead of a race.
func runHandler(cfg ServerConfig, strategy string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Engine.Status().Running {
			WriteError(w, http.StatusConflict, "a run is already in progress", "RUN_IN_PROGRESS")
			return
		}

		go func() {
			ctx := context.Background()
			var err error
			if strategy == queue.StrategyBatch {
				_, err = cfg.Engine.RunBatch(ctx)
			} else {
				_, err = cfg.Engine.RunSequentialDirect(ctx)
			}
			if err != nil && !errors.Is(err, queue.ErrRunInProgress) {
				cfg.Logger.Error("run failed", "strategy", strategy, "error", err)
			}
		}()

		WriteJSON(w, http.StatusAccepted, RunResponse{Started: true, Strategy: strategy})
	}
}

func stopHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Engine.Stop()
		w.WriteHeader(http.StatusNoContent)
	}
}

func historyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := cfg.Store.ListRuns(r.Context(), cfg.Engine.ProjectKey(), queue.MaxHistoryEntries)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list run history", "INTERNAL_ERROR")
			return
		}
		resp := HistoryResponse{Runs: make([]RunSummaryResponse, len(runs))}
		for i, run := range runs {
			resp.Runs[i] = RunSummaryToResponse(run)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listSavedQueuesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saved, err := cfg.Store.ListQueueSnapshots(r.Context(), cfg.Engine.ProjectKey())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list saved queues", "INTERNAL_ERROR")
			return
		}
		resp := SavedQueuesResponse{SavedQueues: make([]SavedQueueResponse, len(saved))}
		for i, sq := range saved {
			resp.SavedQueues[i] = SavedQueueToResponse(sq)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func saveQueueHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveQueueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		saved, err := cfg.Engine.SaveQueueSnapshot(r.Context(), req.Name)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusCreated, SavedQueueToResponse(saved))
	}
}

func loadSavedQueueHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "saved queue id required", "BAD_REQUEST")
			return
		}
		if cfg.Engine.Status().Running {
			WriteError(w, http.StatusConflict, "a run is in progress", "RUN_IN_PROGRESS")
			return
		}

		count, err := cfg.Engine.LoadQueueSnapshot(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, LoadQueueResponse{Loaded: count})
	}
}

func recentDirsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dirs, err := cfg.Engine.RecentOutputDirs(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if dirs == nil {
			dirs = []string{}
		}
		WriteJSON(w, http.StatusOK, RecentDirsResponse{Dirs: dirs})
	}
}

func listPresetSlotsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := cfg.Engine.PresetSlots(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		resp := PresetSlotsResponse{Slots: make([]PresetSlotResponse, len(slots))}
		for i, s := range slots {
			resp.Slots[i] = PresetSlotResponse{Slot: s.Slot, Path: s.Path, Name: s.Name}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func setPresetSlotHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "slot must be a number", "BAD_REQUEST")
			return
		}

		var req SetPresetSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Engine.SetPresetSlot(r.Context(), slot, req.Path, req.Name); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteSavedQueueHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "saved queue id required", "BAD_REQUEST")
			return
		}
		if err := cfg.Store.DeleteQueueSnapshot(r.Context(), id); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
