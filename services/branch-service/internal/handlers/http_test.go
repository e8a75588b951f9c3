package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidClock(t *testing.T) {
	valid := []string{"00:00", "08:00", "23:59", "12:30"}
	for _, s := range valid {
		if !validClock(s) {
			t.Fatalf("validClock(%q) = false, want true", s)
		}
	}
	invalid := []string{"", "8:00", "24:00", "12:60", "12-30", "ab:cd", "12:3"}
	for _, s := range invalid {
		if validClock(s) {
			t.Fatalf("validClock(%q) = true, want false", s)
		}
	}
}

func TestUpdateScheduleRejectsBadInput(t *testing.T) {
	h := New(nil)

	cases := []struct {
		name string
		body string
	}{
		{"day out of range", `{"working_days":[1,7],"open_time":"08:00","close_time":"18:00"}`},
		{"duplicate day", `{"working_days":[1,1],"open_time":"08:00","close_time":"18:00"}`},
		{"bad clock", `{"working_days":[1],"open_time":"8am","close_time":"18:00"}`},
		{"closed before open", `{"working_days":[1],"open_time":"18:00","close_time":"08:00"}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/branch/schedule", strings.NewReader(tc.body))
		req.Header.Set("X-Branch-Id", "branch-1")
		rec := httptest.NewRecorder()
		h.UpdateSchedule(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want %d", tc.name, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestUpdateScheduleRequiresBranchHeader(t *testing.T) {
	h := New(nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/branch/schedule", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.UpdateSchedule(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
