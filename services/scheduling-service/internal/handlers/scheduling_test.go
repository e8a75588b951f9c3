package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/branches"
	"github.com/kunal-deshmukh/drivetrack/services/scheduling-service/internal/model"
)

type fakeStore struct {
	sessions map[string]model.Session
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]model.Session)}
}

func (f *fakeStore) ListByVehicle(_ context.Context, vehicleID string, from time.Time) ([]model.Session, error) {
	var out []model.Session
	for _, s := range f.sessions {
		if s.VehicleID != vehicleID || s.Status == model.StatusCancelled {
			continue
		}
		if s.SessionDate.Before(from) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SessionDate.Equal(out[j].SessionDate) {
			return out[i].SessionDate.Before(out[j].SessionDate)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (f *fakeStore) FindConflicting(_ context.Context, vehicleID string, date time.Time, startClock, endClock, excludeID string) (*model.Session, error) {
	for _, s := range f.sessions {
		if s.VehicleID != vehicleID || s.Status == model.StatusCancelled || s.ID == excludeID {
			continue
		}
		if !s.SessionDate.Equal(date) {
			continue
		}
		if s.StartTime < endClock && startClock < s.EndTime {
			found := s
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (model.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return model.Session{}, pgx.ErrNoRows
	}
	return s, nil
}

func (f *fakeStore) Create(_ context.Context, s *model.Session) (model.Session, error) {
	f.nextID++
	created := *s
	created.ID = fmt.Sprintf("session-%d", f.nextID)
	created.Status = model.StatusScheduled
	created.CreatedAt = time.Now().UTC()
	number := 0
	for _, existing := range f.sessions {
		if existing.ClientID == created.ClientID && existing.SessionNumber > number {
			number = existing.SessionNumber
		}
	}
	created.SessionNumber = number + 1
	f.sessions[created.ID] = created
	return created, nil
}

func (f *fakeStore) Reschedule(_ context.Context, id string, date time.Time, startClock, endClock string) (model.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return model.Session{}, pgx.ErrNoRows
	}
	s.SessionDate = date
	s.StartTime = startClock
	s.EndTime = endClock
	f.sessions[id] = s
	return s, nil
}

func (f *fakeStore) Cancel(_ context.Context, id string) (model.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return model.Session{}, pgx.ErrNoRows
	}
	if s.Status != model.StatusCancelled {
		now := time.Now().UTC()
		s.Status = model.StatusCancelled
		s.CancelledAt = &now
		f.sessions[id] = s
	}
	return s, nil
}

func testBranchProvider() branches.Provider {
	return branches.NewStaticProvider(model.BranchScheduleConfig{
		WorkingDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		Hours: model.OperatingHours{Open: "08:00", Close: "12:00"},
	})
}

func newTestHandler(store *fakeStore) *SchedulingHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSchedulingHandler(store, testBranchProvider(), logger)
}

func seedSession(store *fakeStore, vehicleID, date, start, end string) model.Session {
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		panic(err)
	}
	created, _ := store.Create(context.Background(), &model.Session{
		VehicleID:   vehicleID,
		ClientID:    "client-1",
		ClientName:  "Asha Pillai",
		SessionDate: day,
		StartTime:   start,
		EndTime:     end,
	})
	return created
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestAssignConflictRejectedWithoutWrite(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "vehicle-1", "2024-06-10", "09:00", "09:30")
	h := newTestHandler(store)

	rec := postJSON(t, h.Assign, assignSessionRequest{
		BranchID:    "branch-1",
		VehicleID:   "vehicle-1",
		ClientID:    "client-2",
		ClientName:  "Rahul Nair",
		SessionDate: "2024-06-10",
		StartTime:   "09:00",
	})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	var resp conflictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Conflicting.SessionID == "" {
		t.Fatalf("conflict response missing colliding session")
	}
	if len(store.sessions) != 1 {
		t.Fatalf("sessions stored = %d, want 1 (no write on conflict)", len(store.sessions))
	}
}

func TestAssignPartialOverlapRejected(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "vehicle-1", "2024-06-10", "09:00", "10:00")
	h := newTestHandler(store)

	rec := postJSON(t, h.Assign, assignSessionRequest{
		BranchID:    "branch-1",
		VehicleID:   "vehicle-1",
		ClientID:    "client-2",
		ClientName:  "Rahul Nair",
		SessionDate: "2024-06-10",
		StartTime:   "09:30",
	})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestAssignAdjacentWindowSucceeds(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "vehicle-1", "2024-06-10", "09:00", "09:30")
	h := newTestHandler(store)

	rec := postJSON(t, h.Assign, assignSessionRequest{
		BranchID:    "branch-1",
		VehicleID:   "vehicle-1",
		ClientID:    "client-2",
		ClientName:  "Rahul Nair",
		SessionDate: "2024-06-10",
		StartTime:   "09:30",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var resp sessionItem
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.StartTime != "09:30" || resp.EndTime != "10:00" {
		t.Fatalf("window = %s-%s, want 09:30-10:00", resp.StartTime, resp.EndTime)
	}
	if resp.Status != model.StatusScheduled {
		t.Fatalf("status = %q, want %q", resp.Status, model.StatusScheduled)
	}
}

func TestAssignOutsideOperatingHoursRejected(t *testing.T) {
	store := newFakeStore()
	h := newTestHandler(store)

	rec := postJSON(t, h.Assign, assignSessionRequest{
		BranchID:    "branch-1",
		VehicleID:   "vehicle-1",
		ClientID:    "client-1",
		ClientName:  "Asha Pillai",
		SessionDate: "2024-06-10",
		StartTime:   "07:00",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(store.sessions) != 0 {
		t.Fatalf("sessions stored = %d, want 0", len(store.sessions))
	}
}

func TestCancelFreesSlotForReassignment(t *testing.T) {
	store := newFakeStore()
	existing := seedSession(store, "vehicle-1", "2024-06-10", "09:00", "09:30")
	h := newTestHandler(store)

	rec := postJSON(t, h.CancelSession, cancelSessionRequest{SessionID: existing.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, want %d", rec.Code, http.StatusOK)
	}
	var cancelled sessionItem
	if err := json.Unmarshal(rec.Body.Bytes(), &cancelled); err != nil {
		t.Fatalf("decode cancel response: %v", err)
	}
	if cancelled.Status != model.StatusCancelled || cancelled.CancelledAt == "" {
		t.Fatalf("cancelled session = %+v, want cancelled status with timestamp", cancelled)
	}
	if _, ok := store.sessions[existing.ID]; !ok {
		t.Fatalf("cancelled session row was removed")
	}

	rec = postJSON(t, h.Assign, assignSessionRequest{
		BranchID:    "branch-1",
		VehicleID:   "vehicle-1",
		ClientID:    "client-2",
		ClientName:  "Rahul Nair",
		SessionDate: "2024-06-10",
		StartTime:   "09:00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("reassign status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
}

func TestCancelUnknownSessionNotFound(t *testing.T) {
	h := newTestHandler(newFakeStore())

	rec := postJSON(t, h.CancelSession, cancelSessionRequest{SessionID: "missing"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRescheduleExcludesOwnWindow(t *testing.T) {
	store := newFakeStore()
	existing := seedSession(store, "vehicle-1", "2024-06-10", "09:00", "09:30")
	h := newTestHandler(store)

	rec := postJSON(t, h.RescheduleSession, rescheduleSessionRequest{
		SessionID: existing.ID,
		StartTime: "09:00",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestRescheduleIntoOccupiedWindowRejected(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "vehicle-1", "2024-06-10", "09:00", "09:30")
	moving := seedSession(store, "vehicle-1", "2024-06-10", "10:00", "10:30")
	h := newTestHandler(store)

	rec := postJSON(t, h.RescheduleSession, rescheduleSessionRequest{
		SessionID: moving.ID,
		StartTime: "09:00",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if got := store.sessions[moving.ID].StartTime; got != "10:00" {
		t.Fatalf("session moved to %s despite conflict", got)
	}
}

func TestSlotsReturnsBranchGrid(t *testing.T) {
	h := newTestHandler(newFakeStore())

	req := httptest.NewRequest(http.MethodGet, "/?branch_id=branch-1", nil)
	rec := httptest.NewRecorder()
	h.Slots(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var slots []slotItem
	if err := json.Unmarshal(rec.Body.Bytes(), &slots); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("slots = %d, want 8 for 08:00-12:00", len(slots))
	}
	if slots[0].Value != "08:00" || slots[0].Label != "8:00 AM" {
		t.Fatalf("first slot = %+v", slots[0])
	}
	if slots[7].Value != "11:30" || slots[7].Label != "11:30 AM" {
		t.Fatalf("last slot = %+v", slots[7])
	}
}

func TestSlotsMarksOccupiedForVehicleDay(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "vehicle-1", "2024-06-10", "09:00", "09:30")
	h := newTestHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/?branch_id=branch-1&vehicle_id=vehicle-1&date=2024-06-10", nil)
	rec := httptest.NewRecorder()
	h.Slots(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var slots []gridSlotItem
	if err := json.Unmarshal(rec.Body.Bytes(), &slots); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("slots = %d, want 8", len(slots))
	}
	for _, s := range slots {
		switch s.Value {
		case "09:00":
			if !s.Occupied || s.Session == nil {
				t.Fatalf("09:00 slot = %+v, want occupied with session", s)
			}
			if s.Session.ClientName != "Asha Pillai" {
				t.Fatalf("session client = %q", s.Session.ClientName)
			}
		default:
			if s.Occupied || s.Session != nil {
				t.Fatalf("slot %s = %+v, want free", s.Value, s)
			}
		}
	}
}

func TestCheckOccupiedSlotSuggestsAlternatives(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "vehicle-1", "2024-06-10", "09:00", "09:30")
	h := newTestHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/?branch_id=branch-1&vehicle_id=vehicle-1&date=2024-06-10&time=09:00", nil)
	rec := httptest.NewRecorder()
	h.Check(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp checkResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Occupied {
		t.Fatalf("slot should be occupied")
	}
	if resp.Conflicting == nil {
		t.Fatalf("missing colliding session")
	}
	want := []string{"8:30 AM", "9:30 AM", "8:00 AM", "10:00 AM"}
	if len(resp.Alternatives) != len(want) {
		t.Fatalf("alternatives = %v, want %v", resp.Alternatives, want)
	}
	for i := range want {
		if resp.Alternatives[i] != want[i] {
			t.Fatalf("alternatives = %v, want %v", resp.Alternatives, want)
		}
	}
}

func TestAvailabilityMultiSessionPlan(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "vehicle-1", "2024-06-10", "09:00", "09:30")
	h := newTestHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/?branch_id=branch-1&vehicle_id=vehicle-1&date=2024-06-10&sessions=3", nil)
	rec := httptest.NewRecorder()
	h.Availability(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var items []availabilityItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 8 {
		t.Fatalf("slots = %d, want 8", len(items))
	}

	byValue := make(map[string]availabilityItem, len(items))
	for _, item := range items {
		byValue[item.Slot.Value] = item
	}
	nine := byValue["09:00"]
	if nine.AvailableSessions != 2 || nine.TotalSessions != 3 {
		t.Fatalf("09:00 = %d/%d, want 2/3", nine.AvailableSessions, nine.TotalSessions)
	}
	if nine.IsFullyAvailable || !nine.IsPartiallyAvailable {
		t.Fatalf("09:00 flags = fully:%v partially:%v", nine.IsFullyAvailable, nine.IsPartiallyAvailable)
	}
	ten := byValue["10:00"]
	if !ten.IsFullyAvailable || ten.AvailableSessions != 3 {
		t.Fatalf("10:00 = %d/%d fully:%v", ten.AvailableSessions, ten.TotalSessions, ten.IsFullyAvailable)
	}
}

func TestListReturnsScheduleOrder(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "vehicle-1", "2024-06-11", "08:00", "08:30")
	seedSession(store, "vehicle-1", "2024-06-10", "10:00", "10:30")
	seedSession(store, "vehicle-1", "2024-06-10", "08:30", "09:00")
	h := newTestHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/?vehicle_id=vehicle-1&from=2024-06-01", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var items []sessionItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("sessions = %d, want 3", len(items))
	}
	wantOrder := []string{"08:30", "10:00", "08:00"}
	for i, want := range wantOrder {
		if items[i].StartTime != want {
			t.Fatalf("order[%d] = %s %s, want start %s", i, items[i].SessionDate, items[i].StartTime, want)
		}
	}
}
