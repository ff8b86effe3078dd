package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const inspectTimeout = 2 * time.Second

// debugServer manages the HTTP server for loop inspection.
type debugServer struct {
	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
}

// startDebugServer starts the HTTP debug server on the specified port.
// Returns the actual port (useful when port=0 for ephemeral allocation).
func (l *Loop) startDebugServer(port int) (int, error) {
	l.debug.mu.Lock()
	defer l.debug.mu.Unlock()

	if l.debug.server != nil {
		// Already running - return current port
		if l.debug.listener != nil {
			return l.debug.listener.Addr().(*net.TCPAddr).Port, nil
		}
		return port, nil
	}

	// Bind listener first to fail fast on port conflicts
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return 0, fmt.Errorf("debug server listen: %w", err)
	}

	actualPort := listener.Addr().(*net.TCPAddr).Port

	server := &http.Server{Handler: l.debugHandler()}
	l.debug.server = server
	l.debug.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			// Server failed - clear state so it can be restarted
			l.debug.mu.Lock()
			l.debug.server = nil
			l.debug.listener = nil
			l.debug.mu.Unlock()
			l.log.Error("debug server failed", slog.Any("error", err))
		}
	}()

	return actualPort, nil
}

// stopDebugServer gracefully shuts down the debug server.
func (l *Loop) stopDebugServer() {
	l.debug.mu.Lock()
	server := l.debug.server
	l.debug.server = nil
	l.debug.listener = nil
	l.debug.mu.Unlock()

	if server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}

func (l *Loop) debugHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", l.handleHealth)
	mux.HandleFunc("GET /frames", l.handleFrames)
	mux.HandleFunc("GET /runtime", l.handleRuntime)
	mux.HandleFunc("GET /clocks", l.handleClocks)
	return mux
}

// handleHealth returns a simple health check response.
func (l *Loop) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleFrames returns recent frame samples and summary stats as JSON.
func (l *Loop) handleFrames(w http.ResponseWriter, r *http.Request) {
	frames := l.trace.Snapshot()
	applyFrameFilters(r, &frames)

	writeJSON(w, struct {
		FrameTimeline
		Stats FrameStats `json:"stats"`
	}{
		FrameTimeline: frames,
		Stats:         Stats(frames),
	})
}

// handleRuntime returns recent runtime/GC samples as JSON.
func (l *Loop) handleRuntime(w http.ResponseWriter, r *http.Request) {
	if l.runtime == nil {
		http.Error(w, "runtime sampling disabled", http.StatusServiceUnavailable)
		return
	}

	samples := l.runtime.Snapshot()
	if limit := parseLimit(r); limit > 0 && len(samples) > limit {
		samples = samples[len(samples)-limit:]
	}
	writeJSON(w, struct {
		Samples []RuntimeSample `json:"samples"`
	}{
		Samples: samples,
	})
}

// handleClocks returns the inspector's clock states. The inspector runs on
// the loop goroutine, so the loop must be running.
func (l *Loop) handleClocks(w http.ResponseWriter, r *http.Request) {
	l.inspectMu.Lock()
	inspector := l.inspector
	l.inspectMu.Unlock()
	if inspector == nil {
		http.Error(w, "no inspector", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), inspectTimeout)
	defer cancel()

	ch := make(chan []ClockState, 1)
	if err := l.Inspect(ctx, func() { ch <- inspector() }); err != nil {
		http.Error(w, fmt.Sprintf("inspect: %v", err), http.StatusGatewayTimeout)
		return
	}
	writeJSON(w, struct {
		Clocks []ClockState `json:"clocks"`
	}{
		Clocks: <-ch,
	})
}

func applyFrameFilters(r *http.Request, resp *FrameTimeline) {
	var filters []func(FrameSample) bool

	if v := parseFloatQuery(r, "min_ms"); v > 0 {
		filters = append(filters, func(s FrameSample) bool { return s.FrameMs >= v })
	}
	if value := r.URL.Query().Get("late"); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil && parsed {
			filters = append(filters, func(s FrameSample) bool { return s.Late })
		}
	}

	if len(filters) > 0 {
		filtered := make([]FrameSample, 0, len(resp.Samples))
	outer:
		for _, sample := range resp.Samples {
			for _, f := range filters {
				if !f(sample) {
					continue outer
				}
			}
			filtered = append(filtered, sample)
		}
		resp.Samples = filtered
	}

	if limit := parseLimit(r); limit > 0 && len(resp.Samples) > limit {
		resp.Samples = resp.Samples[len(resp.Samples)-limit:]
	}
}

func parseLimit(r *http.Request) int {
	if value := r.URL.Query().Get("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return 0
}

func parseFloatQuery(r *http.Request, key string) float64 {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return 0
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, v any) {
	// Encode to buffer first so we can catch errors
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
