package health

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Checker reports on the in-process state the service depends on.
type Checker interface {
	SessionCount() int
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker   Checker
	StartedAt time.Time
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness. All state is in process, so readiness only
// requires the session store to be wired.
func (h Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.Checker == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"sessions": "unavailable"})
		return
	}
	status := map[string]string{
		"sessions": strconv.Itoa(h.Checker.SessionCount()),
		"uptime":   time.Since(h.StartedAt).Truncate(time.Second).String(),
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(status)
}
