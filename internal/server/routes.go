package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julianstephens/soberlit/internal/milestones"
	"github.com/julianstephens/soberlit/internal/utils"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, err := s.app.Ledger.Get(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"uptime":     time.Since(s.started).Seconds(),
		"store":      err == nil,
		"escalation": s.app.Escalation.State(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.app.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	snap, err := s.app.Ledger.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	l, changed, err := s.app.Confirm(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"confirmed": changed,
		"ledger":    l,
	})
}

func (s *Server) handleRelapse(w http.ResponseWriter, r *http.Request) {
	l, err := s.app.Relapse(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ledger": l})
}

func (s *Server) handleStartDate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date         string `json:"date"`
		Reinitialize bool   `json:"reinitialize"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	start, err := utils.ParseDateInLocation(req.Date, s.app.Location())
	if err != nil {
		badRequest(w, "date must be YYYY-MM-DD")
		return
	}

	l, err := s.app.SetStartDate(r.Context(), start, req.Reinitialize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ledger": l})
}

func (s *Server) handleMilestones(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.Milestones.Achievements(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"achievements": list})
}

func (s *Server) handleNextMilestone(w http.ResponseWriter, r *http.Request) {
	days, err := s.app.Ledger.GetDaysSober(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	progress, err := s.app.Milestones.MilestoneProgress(r.Context(), days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"days_sober":   days,
		"next":         milestones.GetNextMilestone(days),
		"next_days":    milestones.NextMilestoneDays(days),
		"days_to_next": milestones.DaysToNextMilestone(days),
		"progress":     progress,
	})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Entries []time.Time `json:"entries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "entries must be RFC 3339 timestamps")
		return
	}

	unlocked, err := s.app.RecordJournal(r.Context(), req.Entries)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unlocked": unlocked})
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	alarms, err := s.app.Registry.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alarms": alarms})
}

func (s *Server) handleScheduleReminders(w http.ResponseWriter, r *http.Request) {
	report, err := s.app.ScheduleAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCancelReminders(w http.ResponseWriter, r *http.Request) {
	if err := s.app.CancelReminders(r.Context(), false); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
