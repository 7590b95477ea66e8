package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts"
)

// ClientCounter reports connected websocket clients.
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	analysis  *AnalysisService
	clients   ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service. clients may be nil when no
// websocket hub is running.
func NewHealthService(analysis *AnalysisService, clients ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		analysis:  analysis,
		clients:   clients,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status with component details.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := hs.ReadinessCheck(ctx)
	if status.Status == "ready" {
		status.Status = "ok"
	}
	status.Runtime = hs.runtimeInfo()
	hs.logger.DebugContext(ctx, "health check", slog.String("status", status.Status))
	return status
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Services: map[string]interface{}{
			"pipeline":  hs.checkPipeline(),
			"websocket": hs.checkWebSocket(),
		},
	}
	for _, s := range status.Services {
		if sh, ok := s.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Runtime:   hs.runtimeInfo(),
	}
}

// Version returns version information
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

func (hs *HealthService) runtimeInfo() map[string]interface{} {
	info := map[string]interface{}{
		"uptime_seconds": time.Since(hs.startTime).Seconds(),
		"go_version":     runtime.Version(),
		"goroutines":     runtime.NumGoroutine(),
	}
	if hs.analysis != nil {
		active, completed, stored := hs.analysis.Stats()
		info["active_runs"] = active
		info["completed_runs"] = completed
		info["stored_reports"] = stored
	}
	if hs.clients != nil {
		info["websocket_clients"] = hs.clients.ClientCount()
	}
	return info
}

func (hs *HealthService) checkPipeline() ServiceHealth {
	if hs.analysis == nil || hs.analysis.manager == nil {
		return ServiceHealth{Status: "not_ready", Message: "pipeline not configured"}
	}
	return ServiceHealth{Status: "ready"}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.clients == nil {
		return ServiceHealth{Status: "ready", Message: "disabled"}
	}
	return ServiceHealth{Status: "ready"}
}
