package handlers

import (
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"thumbserver/internal/media"
	"thumbserver/internal/startup"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Worker pool occupancy
	WorkersInUse int `json:"workersInUse"`
	WorkersTotal int `json:"workersTotal"`

	VipsAccelerated bool `json:"vipsAccelerated"`
	FFmpegAvailable bool `json:"ffmpegAvailable"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

var ffmpegCheck = sync.OnceValue(func() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
})

func ffmpegAvailable() bool {
	return ffmpegCheck()
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:          "healthy",
		Version:         startup.Version,
		Uptime:          time.Since(h.startTime).Round(time.Second).String(),
		WorkersInUse:    h.pool.InUse(),
		WorkersTotal:    h.pool.Size(),
		VipsAccelerated: media.IsVipsAvailable(),
		FFmpegAvailable: ffmpegAvailable(),
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 once the server is accepting traffic.
// There is no warm-up phase, so ready tracks liveness.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, map[string]string{
		"status": "ready",
	})
}
