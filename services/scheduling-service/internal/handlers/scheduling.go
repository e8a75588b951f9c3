package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/branches"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/model"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/schedule"
)

// Store is the persistence surface the handlers need from the session
// repository.
type Store interface {
	ListByVehicle(ctx context.Context, vehicleID string, from time.Time) ([]model.Session, error)
	FindConflicting(ctx context.Context, vehicleID string, date time.Time, startClock, endClock, excludeID string) (*model.Session, error)
	Get(ctx context.Context, id string) (model.Session, error)
	Create(ctx context.Context, s *model.Session) (model.Session, error)
	Reschedule(ctx context.Context, id string, date time.Time, startClock, endClock string) (model.Session, error)
	Cancel(ctx context.Context, id string) (model.Session, error)
}

type SchedulingHandler struct {
	store    Store
	branches branches.Provider
	logger   *slog.Logger
}

func NewSchedulingHandler(store Store, branchProvider branches.Provider, logger *slog.Logger) *SchedulingHandler {
	return &SchedulingHandler{
		store:    store,
		branches: branchProvider,
		logger:   logger,
	}
}

type slotItem struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type gridSlotItem struct {
	Value    string       `json:"value"`
	Label    string       `json:"label"`
	Occupied bool         `json:"occupied"`
	Session  *sessionItem `json:"session,omitempty"`
}

type sessionItem struct {
	SessionID     string `json:"session_id"`
	VehicleID     string `json:"vehicle_id"`
	ClientID      string `json:"client_id"`
	ClientName    string `json:"client_name"`
	SessionDate   string `json:"session_date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
	SessionNumber int    `json:"session_number"`
	CancelledAt   string `json:"cancelled_at,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

func sessionToItem(s model.Session) sessionItem {
	item := sessionItem{
		SessionID:     s.ID,
		VehicleID:     s.VehicleID,
		ClientID:      s.ClientID,
		ClientName:    s.ClientName,
		SessionDate:   schedule.DateKey(s.SessionDate),
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		Status:        s.Status,
		SessionNumber: s.SessionNumber,
	}
	if s.CancelledAt != nil {
		item.CancelledAt = s.CancelledAt.UTC().Format(time.RFC3339)
	}
	if !s.CreatedAt.IsZero() {
		item.CreatedAt = s.CreatedAt.UTC().Format(time.RFC3339)
	}
	return item
}

// Slots returns the branch's bookable slot grid. When vehicle_id and date
// are both given, each slot also carries that vehicle's occupancy for the
// day so a picker can grey out taken slots.
func (h *SchedulingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	branchID := strings.TrimSpace(q.Get("branch_id"))
	if branchID == "" {
		http.Error(w, "branch_id required", http.StatusBadRequest)
		return
	}
	vehicleID := strings.TrimSpace(q.Get("vehicle_id"))
	dateStr := strings.TrimSpace(q.Get("date"))

	cfg, ok := h.scheduleConfig(w, r.Context(), branchID)
	if !ok {
		return
	}
	grid := schedule.Grid(cfg.Hours)

	if vehicleID == "" || dateStr == "" {
		items := make([]slotItem, 0, len(grid))
		for _, s := range grid {
			items = append(items, slotItem{Value: s.Value, Label: s.Label})
		}
		writeJSON(w, http.StatusOK, items)
		return
	}

	date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	occ, ok := h.occupancyFor(w, r.Context(), vehicleID, date)
	if !ok {
		return
	}

	items := make([]gridSlotItem, 0, len(grid))
	for _, s := range grid {
		item := gridSlotItem{Value: s.Value, Label: s.Label}
		if taken, found := occ.Lookup(date, s.Value); found {
			item.Occupied = true
			si := sessionToItem(taken)
			item.Session = &si
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

type checkResponse struct {
	Occupied     bool         `json:"occupied"`
	Conflicting  *sessionItem `json:"conflicting_session,omitempty"`
	Alternatives []string     `json:"alternatives"`
}

// Check reports whether one slot is free for a vehicle on a date and, when it
// is taken, suggests nearby free slots.
func (h *SchedulingHandler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	branchID := strings.TrimSpace(q.Get("branch_id"))
	vehicleID := strings.TrimSpace(q.Get("vehicle_id"))
	dateStr := strings.TrimSpace(q.Get("date"))
	clock := strings.TrimSpace(q.Get("time"))
	if branchID == "" || vehicleID == "" || dateStr == "" || clock == "" {
		http.Error(w, "branch_id, vehicle_id, date, and time are required", http.StatusBadRequest)
		return
	}

	date, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	normClock, err := schedule.NormalizeClock(clock)
	if err != nil {
		http.Error(w, "invalid time", http.StatusBadRequest)
		return
	}

	cfg, ok := h.scheduleConfig(w, r.Context(), branchID)
	if !ok {
		return
	}

	grid := schedule.Grid(cfg.Hours)
	occ, ok := h.occupancyFor(w, r.Context(), vehicleID, date)
	if !ok {
		return
	}

	check := schedule.CheckSlot(grid, occ, date, normClock)
	resp := checkResponse{
		Occupied:     check.Occupied,
		Alternatives: check.Alternatives,
	}
	if resp.Alternatives == nil {
		resp.Alternatives = []string{}
	}
	if check.Conflicting != nil {
		item := sessionToItem(*check.Conflicting)
		resp.Conflicting = &item
	}
	writeJSON(w, http.StatusOK, resp)
}

type availabilityItem struct {
	Slot                 slotItem     `json:"slot"`
	AvailableSessions    int          `json:"available_sessions"`
	TotalSessions        int          `json:"total_sessions"`
	IsFullyAvailable     bool         `json:"is_fully_available"`
	IsPartiallyAvailable bool         `json:"is_partially_available"`
	Conflicting          *sessionItem `json:"conflicting_session,omitempty"`
}

// Availability evaluates every slot across the projected occurrence dates of
// a multi-session plan.
func (h *SchedulingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	branchID := strings.TrimSpace(q.Get("branch_id"))
	vehicleID := strings.TrimSpace(q.Get("vehicle_id"))
	dateStr := strings.TrimSpace(q.Get("date"))
	if branchID == "" || vehicleID == "" || dateStr == "" {
		http.Error(w, "branch_id, vehicle_id, and date are required", http.StatusBadRequest)
		return
	}

	anchor, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	sessions := 1
	if raw := strings.TrimSpace(q.Get("sessions")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			http.Error(w, "sessions must be between 1 and 100", http.StatusBadRequest)
			return
		}
		sessions = n
	}

	cfg, ok := h.scheduleConfig(w, r.Context(), branchID)
	if !ok {
		return
	}

	grid := schedule.Grid(cfg.Hours)
	occ, ok := h.occupancyFor(w, r.Context(), vehicleID, anchor)
	if !ok {
		return
	}

	results := schedule.Evaluate(grid, occ, anchor, cfg.WorkingDays, sessions)
	items := make([]availabilityItem, 0, len(results))
	for _, res := range results {
		item := availabilityItem{
			Slot:                 slotItem{Value: res.Slot.Value, Label: res.Slot.Label},
			AvailableSessions:    res.AvailableSessions,
			TotalSessions:        res.TotalSessions,
			IsFullyAvailable:     res.IsFullyAvailable,
			IsPartiallyAvailable: res.IsPartiallyAvailable,
		}
		if res.Conflicting != nil {
			s := sessionToItem(*res.Conflicting)
			item.Conflicting = &s
		}
		items = append(items, item)
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *SchedulingHandler) scheduleConfig(w http.ResponseWriter, ctx context.Context, branchID string) (model.BranchScheduleConfig, bool) {
	cfg, err := h.branches.ScheduleConfig(ctx, branchID)
	if err != nil {
		h.logger.Error("branch schedule fetch failed", "branch_id", branchID, "err", err)
		http.Error(w, "branch schedule unavailable", http.StatusServiceUnavailable)
		return model.BranchScheduleConfig{}, false
	}
	return cfg, true
}

func (h *SchedulingHandler) occupancyFor(w http.ResponseWriter, ctx context.Context, vehicleID string, from time.Time) (*schedule.Occupancy, bool) {
	sessions, err := h.store.ListByVehicle(ctx, vehicleID, schedule.DateOnly(from))
	if err != nil {
		h.logger.Error("session list failed", "vehicle_id", vehicleID, "err", err)
		http.Error(w, "failed to load sessions", http.StatusInternalServerError)
		return nil, false
	}
	return schedule.BuildOccupancy(sessions), true
}
