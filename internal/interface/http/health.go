package http

import (
	"context"
	"sync"
	"time"
)

// CheckFunc is one named dependency probe. It returns an error when the
// dependency is down.
type CheckFunc func(ctx context.Context) error

// HealthStatus is the /health payload.
type HealthStatus struct {
	Healthy   bool                   `json:"healthy"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// CheckResult is the result of a single probe.
type CheckResult struct {
	Healthy  bool   `json:"healthy"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration"`
}

// HealthChecker aggregates named dependency probes.
type HealthChecker struct {
	mu        sync.RWMutex
	checks    map[string]CheckFunc
	startedAt time.Time
	version   string
	timeout   time.Duration
}

// NewHealthChecker creates a checker with a per-probe timeout.
func NewHealthChecker(version string, timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthChecker{
		checks:    make(map[string]CheckFunc),
		startedAt: time.Now(),
		version:   version,
		timeout:   timeout,
	}
}

// AddCheck registers a named probe.
func (h *HealthChecker) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Check runs all probes. The service is healthy only when every probe passes.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	for name, fn := range h.checks {
		checks[name] = fn
	}
	h.mu.RUnlock()

	status := HealthStatus{
		Healthy:   true,
		Checks:    make(map[string]CheckResult, len(checks)),
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Version:   h.version,
		Timestamp: time.Now().UTC(),
	}

	for name, fn := range checks {
		probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
		start := time.Now()
		err := fn(probeCtx)
		cancel()

		result := CheckResult{
			Healthy:  err == nil,
			Duration: time.Since(start).Round(time.Millisecond).String(),
		}
		if err != nil {
			result.Message = err.Error()
			status.Healthy = false
		}
		status.Checks[name] = result
	}
	return status
}
