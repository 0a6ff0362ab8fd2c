// Package monitoring runs readiness probes against the services the profile API
// depends on.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status is the outcome of a probe.
type Status string

const (
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// rank orders statuses from healthy to failed.
func (s Status) rank() int {
	switch s {
	case StatusUp:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Result is the outcome of one probe.
type Result struct {
	Component string        `json:"component"`
	Status    Status        `json:"status"`
	Details   string        `json:"details,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Report aggregates probe results. Status is the worst status of any check.
type Report struct {
	Status Status   `json:"status"`
	Checks []Result `json:"checks"`
}

// Healthy reports whether every check is up.
func (r Report) Healthy() bool { return r.Status == StatusUp }

// Check is a named probe.
type Check struct {
	Name string
	Run  func(ctx context.Context) Result
}

// Manager evaluates the registered checks in registration order.
type Manager struct {
	checks []Check
}

func NewManager(checks ...Check) *Manager {
	m := &Manager{}
	for _, check := range checks {
		m.Register(check)
	}
	return m
}

// Register adds a check. Unnamed checks and nil probes are ignored.
func (m *Manager) Register(check Check) {
	if check.Name == "" || check.Run == nil {
		return
	}
	m.checks = append(m.checks, check)
}

// Evaluate runs every check.
func (m *Manager) Evaluate(ctx context.Context) Report {
	report := Report{Status: StatusUp, Checks: make([]Result, 0, len(m.checks))}
	for _, check := range m.checks {
		result := run(ctx, check)
		report.Checks = append(report.Checks, result)
		if result.Status.rank() > report.Status.rank() {
			report.Status = result.Status
		}
	}
	return report
}

func run(ctx context.Context, check Check) (result Result) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = Result{Status: StatusDown, Details: fmt.Sprint(rec)}
		}
		if result.Status == "" {
			result.Status = StatusDown
		}
		if result.Duration == 0 {
			result.Duration = time.Since(start)
		}
		result.Component = check.Name
	}()
	return check.Run(ctx)
}

// FromError turns a probe error into a result. Timeouts degrade instead of failing.
func FromError(err error, details string) Result {
	switch {
	case err == nil:
		return Result{Status: StatusUp, Details: details}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return Result{Status: StatusDegraded, Details: err.Error()}
	default:
		return Result{Status: StatusDown, Details: err.Error()}
	}
}
