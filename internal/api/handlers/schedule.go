package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/internal/history"
	"github.com/wonny/volscan/internal/scheduler"
	"github.com/wonny/volscan/pkg/logger"
)

// Scheduler is the subset of the trigger manager the API drives
type Scheduler interface {
	Snapshot() scheduler.Snapshot
	RunNow(column int) error
	Pause() error
	Resume() error
	RequestReload()
}

// RunHistory lists recent channel runs
type RunHistory interface {
	Recent(ctx context.Context, limit int) []contracts.RunRecord
	Stats() map[int]history.ChannelStats
	Failed() []contracts.RunRecord
}

// SoundSwitch toggles the completion sound
type SoundSwitch interface {
	Enabled() bool
	Set(enabled bool) bool
	Flip() bool
}

// ScheduleHandler handles schedule, channel and control endpoints
// ⭐ SSOT: 스케줄 제어 API 핸들러는 여기서만
type ScheduleHandler struct {
	scheduler Scheduler
	history   RunHistory
	sound     SoundSwitch
	logger    *logger.Logger
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(s Scheduler, history RunHistory, sound SoundSwitch, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		scheduler: s,
		history:   history,
		sound:     sound,
		logger:    log,
	}
}

// GetSchedule returns the engine state and registered triggers
// GET /api/schedule
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	snap := h.scheduler.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"schedule":      snap,
		"sound_enabled": h.sound.Enabled(),
	})
}

// GetChannels returns every parsed channel, active or not
// GET /api/channels
func (h *ScheduleHandler) GetChannels(w http.ResponseWriter, r *http.Request) {
	snap := h.scheduler.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"channels": snap.Channels,
		"errors":   snap.ConfigErrors,
		"hash":     snap.ConfigHash,
	})
}

// GetRuns returns recent run records, newest first
// GET /api/runs?limit=20
func (h *ScheduleHandler) GetRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			respondError(w, http.StatusBadRequest, "Invalid 'limit' (expected 1-500)")
			return
		}
		limit = n
	}

	runs := h.history.Recent(r.Context(), limit)
	if runs == nil {
		runs = []contracts.RunRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRunStats returns per-channel run statistics
// GET /api/runs/stats
func (h *ScheduleHandler) GetRunStats(w http.ResponseWriter, r *http.Request) {
	stats := h.history.Stats()
	channels := make([]history.ChannelStats, 0, len(stats))
	for _, s := range stats {
		channels = append(channels, s)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].Column < channels[j].Column })

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"channels": channels,
		"failed":   len(h.history.Failed()),
	})
}

// RunChannel queues a manual run of one channel
// POST /api/channels/{column}/run
func (h *ScheduleHandler) RunChannel(w http.ResponseWriter, r *http.Request) {
	column, err := strconv.Atoi(mux.Vars(r)["column"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid column")
		return
	}

	if err := h.scheduler.RunNow(column); err != nil {
		switch {
		case errors.Is(err, scheduler.ErrUnknownChannel):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, scheduler.ErrQueueFull):
			respondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			h.logger.WithError(err).Error("Failed to queue manual run")
			respondError(w, http.StatusInternalServerError, "Failed to queue run")
		}
		return
	}

	h.logger.WithField("column", column).Info("Manual run queued")
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "queued",
		"column": column,
	})
}

// Start resumes trigger firing
// POST /api/control/start
func (h *ScheduleHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.control(w, "start", h.scheduler.Resume)
}

// Stop pauses trigger firing; in-flight runs finish
// POST /api/control/stop
func (h *ScheduleHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.control(w, "stop", h.scheduler.Pause)
}

// Reload requests a configuration reload
// POST /api/control/reload
func (h *ScheduleHandler) Reload(w http.ResponseWriter, r *http.Request) {
	h.scheduler.RequestReload()
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "reload requested"})
}

// NotifyRequest sets the completion sound; an empty body flips it
type NotifyRequest struct {
	Enabled *bool `json:"enabled"`
}

// Notify toggles the completion sound
// POST /api/control/notify
func (h *ScheduleHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var req NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var enabled bool
	if req.Enabled != nil {
		enabled = h.sound.Set(*req.Enabled)
	} else {
		enabled = h.sound.Flip()
	}

	h.logger.WithField("enabled", enabled).Info("Completion sound toggled")
	respondJSON(w, http.StatusOK, map[string]bool{"sound_enabled": enabled})
}

func (h *ScheduleHandler) control(w http.ResponseWriter, action string, fn func() error) {
	if err := fn(); err != nil {
		if errors.Is(err, scheduler.ErrQueueFull) {
			respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": action + " requested"})
}
