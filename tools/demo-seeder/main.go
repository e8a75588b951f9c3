package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kunal-deshmukh/drivetrack/libs/auth"
)

// Seeds a branch schedule, a vehicle, a client, and one booked session
// through the gateway so a fresh local stack has something to look at.
func main() {
	var (
		baseURL  = flag.String("base-url", getenv("BASE_URL", "http://localhost:8080"), "gateway base url")
		branch   = flag.String("branch-id", getenv("BRANCH_ID", "branch-demo"), "branch id for the seeded data")
		secret   = flag.String("jwt-secret", getenv("JWT_SECRET", "dev-secret"), "gateway HS256 secret")
		dateStr  = flag.String("date", getenv("SESSION_DATE", ""), "session date (YYYY-MM-DD, default next weekday)")
		slotTime = flag.String("time", getenv("SESSION_TIME", "09:00"), "session start time (HH:MM)")
	)
	flag.Parse()

	token, err := auth.SignHS256(auth.Claims{
		Sub:      "demo-seeder",
		BranchID: *branch,
		Role:     "owner",
		Iat:      time.Now().Unix(),
		Exp:      time.Now().Add(15 * time.Minute).Unix(),
	}, *secret)
	if err != nil {
		fatal(err.Error())
	}

	c := &client{base: strings.TrimRight(*baseURL, "/"), token: token}

	if err := c.do(http.MethodPut, "/api/v1/branch/schedule", map[string]any{
		"working_days": []int{1, 2, 3, 4, 5},
		"open_time":    "08:00",
		"close_time":   "18:00",
	}, nil); err != nil {
		fatal("update schedule: " + err.Error())
	}
	fmt.Println("branch schedule set: Mon-Fri 08:00-18:00")

	var vehicle struct {
		ID string `json:"id"`
	}
	if err := c.do(http.MethodPost, "/api/v1/branch/vehicles", map[string]any{
		"registration": "KA-01-HG-1234",
		"model":        "Swift Dzire",
		"transmission": "manual",
	}, &vehicle); err != nil {
		fatal("create vehicle: " + err.Error())
	}
	fmt.Printf("vehicle created: %s\n", vehicle.ID)

	var cl struct {
		ID string `json:"id"`
	}
	if err := c.do(http.MethodPost, "/api/v1/branch/clients", map[string]any{
		"name":  "Demo Learner",
		"phone": "+91-9800000000",
	}, &cl); err != nil {
		fatal("create client: " + err.Error())
	}
	fmt.Printf("client created: %s\n", cl.ID)

	date := *dateStr
	if date == "" {
		date = nextWeekday(time.Now().UTC()).Format("2006-01-02")
	}
	var session struct {
		SessionID string `json:"session_id"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}
	if err := c.do(http.MethodPost, "/api/v1/sessions", map[string]any{
		"branch_id":    *branch,
		"vehicle_id":   vehicle.ID,
		"client_id":    cl.ID,
		"client_name":  "Demo Learner",
		"session_date": date,
		"start_time":   *slotTime,
	}, &session); err != nil {
		fatal("book session: " + err.Error())
	}
	fmt.Printf("session booked: %s on %s %s-%s\n", session.SessionID, date, session.StartTime, session.EndTime)
}

type client struct {
	base  string
	token string
}

func (c *client) do(method, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil && len(raw) > 0 {
		return json.Unmarshal(raw, out)
	}
	return nil
}

func nextWeekday(t time.Time) time.Time {
	d := t.AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
