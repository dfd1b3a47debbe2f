// Package health aggregates component probes into a single status.
package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates that every probe failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

const defaultProbeTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type probe struct {
	name  string
	check func(ctx context.Context) error
}

// Service coordinates health checks.
type Service struct {
	probes  []probe
	timeout time.Duration
}

// New creates a Service with no probes. A service without probes is healthy.
func New() *Service {
	return &Service{timeout: defaultProbeTimeout}
}

// WithStore adds a store ping probe under name. A nil pinger is ignored.
func (s *Service) WithStore(name string, p Pinger) *Service {
	if p != nil {
		s.probes = append(s.probes, probe{name: name, check: p.Ping})
	}
	return s
}

// WithEmbedding adds the embedding provider probe. A nil checker is ignored.
func (s *Service) WithEmbedding(c EmbeddingChecker) *Service {
	if c != nil {
		s.probes = append(s.probes, probe{name: "embedding", check: c.HealthCheck})
	}
	return s
}

// Check runs every probe with a bounded timeout.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.probes))
	failed := 0

	for _, p := range s.probes {
		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := p.check(pctx)
		cancel()

		if err != nil {
			checks[p.name] = CheckError
			failed++
		} else {
			checks[p.name] = CheckOK
		}
	}

	status := Healthy
	switch {
	case failed > 0 && failed == len(s.probes):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
