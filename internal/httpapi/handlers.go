package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aruvell/marksub/internal/config"
)

type healthResponse struct {
	Status         string        `json:"status"`
	Jobs           int           `json:"jobs"`
	TargetLanguage string        `json:"target_language"`
	Schedule       *scheduleInfo `json:"schedule,omitempty"`
}

type scheduleInfo struct {
	CronExpr string    `json:"cron_expr"`
	NextScan time.Time `json:"next_scan"`
	LastScan time.Time `json:"last_scan"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := healthResponse{
		Status:         "ok",
		Jobs:           len(s.queue.List()),
		TargetLanguage: s.scanner.TargetLanguage(),
	}
	if s.scans != nil {
		if info, err := s.scans.ScheduleInfo(); err == nil {
			resp.Schedule = &scheduleInfo{
				CronExpr: info.Expression,
				NextScan: info.Next,
				LastScan: info.Last,
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.queue.List())
}

// handleScan drops the listing cache and runs a scan right away. Jobs
// for new candidates are enqueued before the response goes out.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.scans == nil {
		writeError(w, http.StatusNotImplemented, "scan trigger is not configured")
		return
	}

	s.scanner.Invalidate()
	created, err := s.scans.TriggerScan(r.Context(), "manual")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"jobs_created": created,
	})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeError(w, http.StatusNotImplemented, "settings store is not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		settings, err := s.settings.GetRuntimeSettings()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, settings)
	case http.MethodPut:
		var req config.RuntimeSettings
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		saved, err := s.settings.UpdateRuntimeSettings(req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if s.apply != nil {
			if err := s.apply(saved); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, saved)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
