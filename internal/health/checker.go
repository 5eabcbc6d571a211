package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds chain audit configuration.
type Config struct {
	CheckInterval time.Duration
	FailThreshold int
}

// Verifier walks the chain and reports the first integrity failure.
type Verifier interface {
	Verify() error
}

// StatusFunc is called when the chain transitions between healthy and degraded.
type StatusFunc func(healthy bool)

// MetricsRecordFunc is an optional callback for recording audit results.
type MetricsRecordFunc func(success bool)

// Status is a point-in-time view of the auditor.
type Status struct {
	Healthy   bool      `json:"healthy"`
	CheckedAt time.Time `json:"checked_at,omitempty"`
	Failures  int       `json:"consecutive_failures"`
	LastError string    `json:"last_error,omitempty"`
}

// Checker re-verifies the chain on an interval and marks it degraded after
// FailThreshold consecutive failures.
type Checker struct {
	verifier  Verifier
	cfg       Config
	onStatus  StatusFunc
	onMetrics MetricsRecordFunc
	logger    *zap.Logger

	mu     sync.Mutex
	status Status
}

// New creates a new Checker.
func New(verifier Verifier, cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 5 * time.Minute
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 1
	}
	return &Checker{
		verifier: verifier,
		cfg:      cfg,
		logger:   logger,
		status:   Status{Healthy: true},
	}
}

// SetStatusFunc configures the healthy/degraded transition callback.
func (h *Checker) SetStatusFunc(fn StatusFunc) {
	h.onStatus = fn
}

// SetMetricsRecord configures the metrics recording callback.
func (h *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	h.onMetrics = fn
}

// Start runs the audit loop until ctx is cancelled.
func (h *Checker) Start(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.Check()
		case <-ctx.Done():
			return
		}
	}
}

// Check verifies the chain once and updates the status.
func (h *Checker) Check() Status {
	err := h.verifier.Verify()
	success := err == nil

	if h.onMetrics != nil {
		h.onMetrics(success)
	}

	h.mu.Lock()
	wasHealthy := h.status.Healthy
	h.status.CheckedAt = time.Now().UTC()
	if success {
		h.status.Failures = 0
		h.status.LastError = ""
		h.status.Healthy = true
	} else {
		h.status.Failures++
		h.status.LastError = err.Error()
		if h.status.Failures >= h.cfg.FailThreshold {
			h.status.Healthy = false
		}
	}
	snapshot := h.status
	h.mu.Unlock()

	switch {
	case !wasHealthy && snapshot.Healthy:
		h.logger.Info("health: chain recovered")
		h.notify(true)
	case wasHealthy && !snapshot.Healthy:
		h.logger.Error("health: chain degraded",
			zap.Int("fail_count", snapshot.Failures),
			zap.String("error", snapshot.LastError),
		)
		h.notify(false)
	case !success:
		h.logger.Warn("health: chain verification failed", zap.Error(err))
	}
	return snapshot
}

// Status returns the most recent audit result.
func (h *Checker) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

func (h *Checker) notify(healthy bool) {
	if h.onStatus != nil {
		h.onStatus(healthy)
	}
}
