package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/yndnr/roster-go/internal/core/domain"
	"github.com/yndnr/roster-go/internal/storage/snapshot"
)

const maxHistoryLimit = 1000

// Status handles GET /admin/v1/backups/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, newStatusResponse(h.cfg.Scheduler.Status()))
}

// Start handles POST /admin/v1/backups/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, r, domain.ErrBadRequest.WithDetails("invalid JSON body"))
		return
	}

	interval := h.cfg.DefaultInterval
	if req.Interval != "" {
		d, err := time.ParseDuration(req.Interval)
		if err != nil || d <= 0 {
			h.writeError(w, r, domain.ErrBadRequest.WithDetails("interval must be a positive duration"))
			return
		}
		interval = d
	}

	if h.cfg.Scheduler.Status().Running {
		h.writeError(w, r, domain.ErrBackupAlreadyRunning)
		return
	}
	if err := h.cfg.Scheduler.Start(interval); err != nil {
		if errors.Is(err, snapshot.ErrInvalidInterval) {
			h.writeError(w, r, domain.ErrBadRequest.WithDetails(err.Error()))
			return
		}
		h.writeError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "snapshot scheduler started via admin API", "interval", interval)
	h.writeJSON(w, r, http.StatusOK, newStatusResponse(h.cfg.Scheduler.Status()))
}

// Stop handles POST /admin/v1/backups/stop.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.Scheduler.Status().Running {
		h.writeError(w, r, domain.ErrBackupNotRunning)
		return
	}
	h.cfg.Scheduler.Stop()

	h.logger.InfoContext(r.Context(), "snapshot scheduler stopped via admin API")
	h.writeJSON(w, r, http.StatusOK, newStatusResponse(h.cfg.Scheduler.Status()))
}

// Trigger handles POST /admin/v1/backups/trigger.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.Scheduler.Trigger(); err != nil {
		if errors.Is(err, snapshot.ErrSnapshotInFlight) {
			h.writeError(w, r, domain.ErrBackupInFlight)
			return
		}
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusAccepted, newStatusResponse(h.cfg.Scheduler.Status()))
}

// Report handles GET /admin/v1/backups/report.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	rep, err := h.cfg.Reporter.Generate(r.Context())
	if err != nil {
		h.writeError(w, r, domain.ErrBackupReport.WithCause(err))
		return
	}
	if h.cfg.Observer != nil {
		h.cfg.Observer.ObserveReport(rep)
	}
	h.writeJSON(w, r, http.StatusOK, rep)
}

// List handles GET /admin/v1/backups.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	infos, err := snapshot.List(h.cfg.BackupDir)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := ListResponse{Backups: make([]BackupInfo, 0, len(infos))}
	for _, info := range infos {
		resp.Backups = append(resp.Backups, BackupInfo{
			Name:      info.Name,
			Size:      info.Size,
			CreatedAt: info.CreatedAt,
		})
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// History handles GET /admin/v1/backups/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.cfg.History == nil {
		h.writeError(w, r, domain.ErrJournalDisabled)
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxHistoryLimit {
			h.writeError(w, r, domain.ErrBadRequest.WithDetails("limit must be between 1 and 1000"))
			return
		}
		limit = n
	}

	entries, err := h.cfg.History.Recent(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, HistoryResponse{Entries: entries})
}
