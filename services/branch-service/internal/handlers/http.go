package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/kunal-deshmukh/drivetrack/services/branch-service/internal/storage"
)

type Handler struct {
	repo *storage.Repository
}

func New(repo *storage.Repository) *Handler {
	return &Handler{repo: repo}
}

func branchIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Branch-Id"))
}

func (h *Handler) GetBranch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	b, err := h.repo.GetOrCreateBranch(r.Context(), branchID)
	if err != nil {
		http.Error(w, "failed to load branch", http.StatusInternalServerError)
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"branch_id":    b.BranchID,
		"name":         b.Name,
		"timezone":     b.Timezone,
		"working_days": b.WorkingDays,
		"open_time":    b.OpenTime,
		"close_time":   b.CloseTime,
	})
}

func (h *Handler) UpdateBranch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		Name     string `json:"name"`
		Timezone string `json:"timezone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Timezone = strings.TrimSpace(req.Timezone)
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}

	if err := h.repo.UpdateBranch(r.Context(), branchID, req.Name, req.Timezone); err != nil {
		http.Error(w, "failed to update branch", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	hh := s[:2]
	mm := s[3:]
	for _, c := range hh + mm {
		if c < '0' || c > '9' {
			return false
		}
	}
	return hh <= "23" && mm <= "59"
}

func (h *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		WorkingDays []int  `json:"working_days"`
		OpenTime    string `json:"open_time"`
		CloseTime   string `json:"close_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	seen := make(map[int]bool, len(req.WorkingDays))
	for _, d := range req.WorkingDays {
		if d < 0 || d > 6 {
			http.Error(w, "working_days must be between 0 and 6", http.StatusBadRequest)
			return
		}
		if seen[d] {
			http.Error(w, "working_days must not repeat", http.StatusBadRequest)
			return
		}
		seen[d] = true
	}

	req.OpenTime = strings.TrimSpace(req.OpenTime)
	req.CloseTime = strings.TrimSpace(req.CloseTime)
	if !validClock(req.OpenTime) || !validClock(req.CloseTime) {
		http.Error(w, "open_time and close_time must be HH:MM", http.StatusBadRequest)
		return
	}
	if req.CloseTime <= req.OpenTime {
		http.Error(w, "close_time must be after open_time", http.StatusBadRequest)
		return
	}

	if err := h.repo.UpdateSchedule(r.Context(), branchID, req.WorkingDays, req.OpenTime, req.CloseTime); err != nil {
		http.Error(w, "failed to update schedule", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		Registration string `json:"registration"`
		Model        string `json:"model"`
		Transmission string `json:"transmission"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Registration = strings.TrimSpace(req.Registration)
	req.Model = strings.TrimSpace(req.Model)
	req.Transmission = strings.ToLower(strings.TrimSpace(req.Transmission))
	if req.Registration == "" {
		http.Error(w, "registration is required", http.StatusBadRequest)
		return
	}
	if req.Transmission != "" && req.Transmission != "manual" && req.Transmission != "automatic" {
		http.Error(w, "transmission must be manual or automatic", http.StatusBadRequest)
		return
	}
	if req.Transmission == "" {
		req.Transmission = "manual"
	}

	id, err := h.repo.CreateVehicle(r.Context(), branchID, req.Registration, req.Model, req.Transmission)
	if err != nil {
		http.Error(w, "failed to create vehicle", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	vehicles, err := h.repo.ListVehicles(r.Context(), branchID, 100)
	if err != nil {
		http.Error(w, "failed to list vehicles", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(vehicles)
}

func (h *Handler) SetVehicleActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	vehicleID := strings.TrimSpace(r.URL.Query().Get("id"))
	if vehicleID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	if err := h.repo.SetVehicleActive(r.Context(), branchID, vehicleID, req.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "vehicle not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update vehicle", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	id, err := h.repo.CreateClient(r.Context(), branchID, req.Name, strings.TrimSpace(req.Phone), strings.TrimSpace(req.Email))
	if err != nil {
		http.Error(w, "failed to create client", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (h *Handler) SearchClients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	branchID := branchIDFromHeader(r)
	if branchID == "" {
		http.Error(w, "missing X-Branch-Id", http.StatusBadRequest)
		return
	}

	clients, err := h.repo.SearchClients(r.Context(), branchID, strings.TrimSpace(r.URL.Query().Get("q")), 50)
	if err != nil {
		http.Error(w, "failed to search clients", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(clients)
}
