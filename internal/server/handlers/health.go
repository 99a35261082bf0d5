package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"maps"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/errors"

	apperrors "github.com/astrasemi/qualitylens/internal/errors"
	"github.com/astrasemi/qualitylens/internal/metrics"
)

// Check and aggregate statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusTimeout   = "timeout"
)

// HealthResponse is the aggregate /health body.
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProbeResponse is the body of the live, ready and startup probes.
type ProbeResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthChecker is implemented by components that can report readiness.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

type probe struct {
	name      string
	timeout   time.Duration
	runChecks bool
	failure   string
}

var (
	probeAggregate = probe{name: "aggregate", timeout: 5 * time.Second, runChecks: true, failure: "aggregate health check failed"}
	probeLive      = probe{name: "live", timeout: 2 * time.Second, failure: "liveness probe failed"}
	probeReady     = probe{name: "ready", timeout: 5 * time.Second, runChecks: true, failure: "readiness probe failed"}
	probeStartup   = probe{name: "startup", timeout: 3 * time.Second, runChecks: true, failure: "startup probe failed"}
)

// HealthManager runs registered checkers for the health probes. Liveness
// only reports that the process serves requests; the other probes run every
// checker.
type HealthManager struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
	version  string
}

// NewHealthManager creates a new health manager
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		checkers: make(map[string]HealthChecker),
		version:  version,
	}
}

// RegisterChecker adds or replaces the checker registered under name.
func (hm *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checkers[name] = checker
}

// runHealthChecks runs every checker concurrently under ctx.
func (hm *HealthManager) runHealthChecks(ctx context.Context) map[string]string {
	hm.mu.RLock()
	checkers := maps.Clone(hm.checkers)
	hm.mu.RUnlock()

	results := make(map[string]string, len(checkers))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, checker := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := runCheck(ctx, name, checker)
			mu.Lock()
			results[name] = status
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

func runCheck(ctx context.Context, name string, checker HealthChecker) string {
	start := time.Now()
	err := checker.CheckHealth(ctx)
	metrics.RecordHealthCheck(name, err == nil, time.Since(start))

	switch {
	case err == nil:
		return StatusHealthy
	case stderrors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	default:
		return StatusUnhealthy
	}
}

// determineOverallStatus folds check results: any unhealthy check fails the
// probe, a timed out or degraded one only degrades it.
func (hm *HealthManager) determineOverallStatus(checks map[string]string) string {
	overall := StatusHealthy
	for _, status := range checks {
		switch status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded, StatusTimeout:
			overall = StatusDegraded
		}
	}
	return overall
}

func (hm *HealthManager) serveProbe(w http.ResponseWriter, r *http.Request, p probe) {
	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	var checks map[string]string
	if p.runChecks {
		checks = hm.runHealthChecks(ctx)
	}
	status := hm.determineOverallStatus(checks)

	if status == StatusUnhealthy {
		envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", p.failure)
		apperrors.RespondWithError(w, r, enrichHealthEnvelope(envelope, p.name, status, checks))
		return
	}

	var body any = ProbeResponse{Status: status, Timestamp: time.Now().UTC()}
	if p == probeAggregate {
		body = HealthResponse{
			Status:    status,
			Version:   hm.version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    checks,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}

// HealthHandler serves /health with per-check results.
func (hm *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	hm.serveProbe(w, r, probeAggregate)
}

// LivenessHandler serves /health/live.
func (hm *HealthManager) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	hm.serveProbe(w, r, probeLive)
}

// ReadinessHandler serves /health/ready. The insight backend checker makes
// this fail while the prompt set is unusable.
func (hm *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	hm.serveProbe(w, r, probeReady)
}

// StartupHandler serves /health/startup.
func (hm *HealthManager) StartupHandler(w http.ResponseWriter, r *http.Request) {
	hm.serveProbe(w, r, probeStartup)
}

func enrichHealthEnvelope(envelope *errors.ErrorEnvelope, probeName, status string, checks map[string]string) *errors.ErrorEnvelope {
	if envelope == nil {
		return nil
	}

	details := map[string]interface{}{
		"status": status,
		"probe":  probeName,
	}
	if len(checks) > 0 {
		details["checks"] = checks
	}
	envelope = envelope.WithDetails(details)

	var failing []string
	for name, result := range checks {
		if result != StatusHealthy {
			failing = append(failing, name)
		}
	}
	sort.Strings(failing)

	contextData := map[string]interface{}{
		"status": status,
		"probe":  probeName,
	}
	if len(failing) > 0 {
		contextData["unhealthy_checks"] = failing
	}
	envelope, _ = envelope.WithContext(contextData)
	return envelope
}

var globalHealthManager *HealthManager

// InitHealthManager replaces the manager behind the package-level handlers.
func InitHealthManager(version string) {
	globalHealthManager = NewHealthManager(version)
}

// GetHealthManager returns the global health manager
func GetHealthManager() *HealthManager {
	return globalHealthManager
}

// Package-level probe handlers backed by the global manager.
var (
	HealthHandler    = globalProbe(probeAggregate)
	LivenessHandler  = globalProbe(probeLive)
	ReadinessHandler = globalProbe(probeReady)
	StartupHandler   = globalProbe(probeStartup)
)

func globalProbe(p probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hm := globalHealthManager; hm != nil {
			hm.serveProbe(w, r, p)
			return
		}
		envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "health manager not initialized")
		apperrors.RespondWithError(w, r, enrichHealthEnvelope(envelope, p.name, "unknown", nil))
	}
}
