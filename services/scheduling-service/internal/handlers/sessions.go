package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/model"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/schedule"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/storage"
)

type assignSessionRequest struct {
	BranchID    string `json:"branch_id"`
	VehicleID   string `json:"vehicle_id"`
	ClientID    string `json:"client_id"`
	ClientName  string `json:"client_name"`
	SessionDate string `json:"session_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

type rescheduleSessionRequest struct {
	SessionID   string `json:"session_id"`
	BranchID    string `json:"branch_id"`
	SessionDate string `json:"session_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

type cancelSessionRequest struct {
	SessionID string `json:"session_id"`
}

type conflictResponse struct {
	Error       string      `json:"error"`
	Conflicting sessionItem `json:"conflicting_session"`
}

// Assign books one session for a client on a vehicle. The requested window is
// re-validated against current bookings inside the request, then the database
// overlap constraint has the final word.
func (h *SchedulingHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req assignSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.BranchID = strings.TrimSpace(req.BranchID)
	req.VehicleID = strings.TrimSpace(req.VehicleID)
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.ClientName = strings.TrimSpace(req.ClientName)
	if req.BranchID == "" || req.VehicleID == "" || req.ClientID == "" || req.ClientName == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	date, start, end, ok := h.parseWindow(w, req.SessionDate, req.StartTime, req.EndTime)
	if !ok {
		return
	}
	if !h.validateWithinHours(w, r, req.BranchID, start, end) {
		return
	}

	ctx := r.Context()
	if conflicting, err := h.store.FindConflicting(ctx, req.VehicleID, date, start, end, ""); err != nil {
		h.logger.Error("conflict lookup failed", "err", err)
		http.Error(w, "failed to check availability", http.StatusInternalServerError)
		return
	} else if conflicting != nil {
		writeJSON(w, http.StatusConflict, conflictResponse{
			Error:       "time slot already booked",
			Conflicting: sessionToItem(*conflicting),
		})
		return
	}

	created, err := h.store.Create(ctx, &model.Session{
		VehicleID:   req.VehicleID,
		ClientID:    req.ClientID,
		ClientName:  req.ClientName,
		SessionDate: date,
		StartTime:   start,
		EndTime:     end,
		Status:      model.StatusScheduled,
	})
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		h.logger.Error("session create failed", "err", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, sessionToItem(created))
}

// Reschedule moves an existing session to a new window, re-validating the
// target window with the session itself excluded so a session can keep or
// shift within its own slot.
func (h *SchedulingHandler) RescheduleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rescheduleSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	current, err := h.store.Get(ctx, req.SessionID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("session load failed", "err", err)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	if current.Status == model.StatusCancelled {
		http.Error(w, "session is cancelled", http.StatusConflict)
		return
	}

	if req.SessionDate == "" {
		req.SessionDate = schedule.DateKey(current.SessionDate)
	}
	date, start, end, ok := h.parseWindow(w, req.SessionDate, req.StartTime, req.EndTime)
	if !ok {
		return
	}
	if branchID := strings.TrimSpace(req.BranchID); branchID != "" {
		if !h.validateWithinHours(w, r, branchID, start, end) {
			return
		}
	}

	if conflicting, err := h.store.FindConflicting(ctx, current.VehicleID, date, start, end, current.ID); err != nil {
		h.logger.Error("conflict lookup failed", "err", err)
		http.Error(w, "failed to check availability", http.StatusInternalServerError)
		return
	} else if conflicting != nil {
		writeJSON(w, http.StatusConflict, conflictResponse{
			Error:       "time slot already booked",
			Conflicting: sessionToItem(*conflicting),
		})
		return
	}

	updated, err := h.store.Reschedule(ctx, current.ID, date, start, end)
	if err != nil {
		switch {
		case storage.IsConflict(err):
			http.Error(w, "time slot already booked", http.StatusConflict)
		case storage.IsNotFound(err):
			http.Error(w, "session not found", http.StatusNotFound)
		case errors.Is(err, storage.ErrSessionCancelled):
			http.Error(w, "session is cancelled", http.StatusConflict)
		default:
			h.logger.Error("session reschedule failed", "err", err)
			http.Error(w, "failed to reschedule session", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, sessionToItem(updated))
}

// CancelSession marks the session cancelled. The row stays so history and
// session numbering are preserved; repeating the cancel is a no-op.
func (h *SchedulingHandler) CancelSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}

	cancelled, err := h.store.Cancel(r.Context(), req.SessionID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		h.logger.Error("session cancel failed", "err", err)
		http.Error(w, "failed to cancel session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, sessionToItem(cancelled))
}

// List returns the upcoming non-cancelled sessions for a vehicle.
func (h *SchedulingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	vehicleID := strings.TrimSpace(r.URL.Query().Get("vehicle_id"))
	if vehicleID == "" {
		http.Error(w, "vehicle_id required", http.StatusBadRequest)
		return
	}

	from := schedule.DateOnly(time.Now().UTC())
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return
		}
		from = parsed
	}

	sessions, err := h.store.ListByVehicle(r.Context(), vehicleID, from)
	if err != nil {
		h.logger.Error("session list failed", "vehicle_id", vehicleID, "err", err)
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}

	items := make([]sessionItem, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, sessionToItem(s))
	}
	writeJSON(w, http.StatusOK, items)
}

// parseWindow validates a session date plus [start, end) clock pair. An empty
// end defaults to one slot after start.
func (h *SchedulingHandler) parseWindow(w http.ResponseWriter, dateStr, startStr, endStr string) (time.Time, string, string, bool) {
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(dateStr), time.UTC)
	if err != nil {
		http.Error(w, "invalid session_date", http.StatusBadRequest)
		return time.Time{}, "", "", false
	}

	startMins, err := schedule.ParseClock(strings.TrimSpace(startStr))
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return time.Time{}, "", "", false
	}

	endMins := startMins + schedule.SlotMinutes
	if trimmed := strings.TrimSpace(endStr); trimmed != "" {
		endMins, err = schedule.ParseClock(trimmed)
		if err != nil {
			http.Error(w, "invalid end_time", http.StatusBadRequest)
			return time.Time{}, "", "", false
		}
	}
	if endMins <= startMins {
		http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
		return time.Time{}, "", "", false
	}

	return date, schedule.FormatClock(startMins), schedule.FormatClock(endMins), true
}

// validateWithinHours rejects windows that fall outside the branch's
// operating hours. A branch schedule fetch failure is reported as an upstream
// error rather than silently allowing the booking.
func (h *SchedulingHandler) validateWithinHours(w http.ResponseWriter, r *http.Request, branchID, start, end string) bool {
	cfg, err := h.branches.ScheduleConfig(r.Context(), branchID)
	if err != nil {
		h.logger.Error("branch schedule fetch failed", "branch_id", branchID, "err", err)
		http.Error(w, "branch schedule unavailable", http.StatusServiceUnavailable)
		return false
	}

	openMins, err := schedule.ParseClock(cfg.Hours.Open)
	if err != nil {
		return true
	}
	closeMins, err := schedule.ParseClock(cfg.Hours.Close)
	if err != nil {
		return true
	}

	startMins, _ := schedule.ParseClock(start)
	endMins, _ := schedule.ParseClock(end)
	if startMins < openMins || endMins > closeMins {
		http.Error(w, "requested time is outside operating hours", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
