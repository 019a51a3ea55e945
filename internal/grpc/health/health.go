// Package health exposes the standard gRPC health service, driven by the
// same dependency checks as the HTTP readiness endpoint.
package health

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"threatdash/pkg/logger"
)

// ServiceName is the service reported alongside the overall "" status
const ServiceName = "threatdash.v1.Dashboard"

// Pinger is a dependency that can report its own health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor keeps the gRPC health status in sync with its checks
type Monitor struct {
	server   *health.Server
	checks   map[string]Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *logger.Logger
}

// NewMonitor creates a Monitor. Status starts as SERVING.
func NewMonitor(checks map[string]Pinger, interval time.Duration, log *logger.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	m := &Monitor{
		server:   health.NewServer(),
		checks:   checks,
		interval: interval,
		timeout:  2 * time.Second,
		logger:   log.WithComponent("grpc-health"),
	}
	m.set(grpc_health_v1.HealthCheckResponse_SERVING)
	return m
}

// Register adds the health service to a gRPC server
func (m *Monitor) Register(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, m.server)
}

// Server returns the underlying health server
func (m *Monitor) Server() grpc_health_v1.HealthServer {
	return m.server
}

// Run re-evaluates the checks every interval until ctx is done, then
// reports NOT_SERVING
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			m.server.Shutdown()
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

// Probe runs every check once and updates the status. Returns true when all
// checks pass.
func (m *Monitor) Probe(ctx context.Context) bool {
	healthy := true
	for name, check := range m.checks {
		cctx, cancel := context.WithTimeout(ctx, m.timeout)
		err := check.Ping(cctx)
		cancel()
		if err != nil {
			healthy = false
			m.logger.Warn().Err(err).Str("check", name).Msg("health check failed")
		}
	}

	if healthy {
		m.set(grpc_health_v1.HealthCheckResponse_SERVING)
	} else {
		m.set(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}
	return healthy
}

func (m *Monitor) set(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	m.server.SetServingStatus("", status)
	m.server.SetServingStatus(ServiceName, status)
}
