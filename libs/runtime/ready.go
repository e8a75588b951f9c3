package runtime

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const readyCheckTimeout = 2 * time.Second

// ReadyCheck is a named dependency check evaluated on every /readyz hit.
type ReadyCheck struct {
	Name  string
	Check func(context.Context) error
}

func (c ReadyCheck) label() string {
	if c.Name == "" {
		return "dependency"
	}
	return c.Name
}

// NewBaseMuxWithReady returns a mux preloaded with /healthz (liveness, always
// 200) and /readyz (503 listing every failing dependency).
func NewBaseMuxWithReady(checks ...ReadyCheck) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		var failures []string
		for _, check := range checks {
			if check.Check == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
			err := check.Check(ctx)
			cancel()
			if err != nil {
				failures = append(failures, check.label()+": "+err.Error())
			}
		}
		if len(failures) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(strings.Join(failures, "; ")))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
