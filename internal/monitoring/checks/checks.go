// Package checks provides the readiness probes registered by the API router.
package checks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/userprofile/internal/fields"
	"github.com/charlesng35/userprofile/internal/monitoring"
)

const defaultTimeout = 2 * time.Second

// Pinger is implemented by the Redis cache client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// FieldSource loads the stored field list.
type FieldSource interface {
	Get(ctx context.Context) (fields.Definition, error)
}

// DependencyChecker reports unsatisfied module dependencies.
type DependencyChecker interface {
	CheckDependencies(ctx context.Context) error
}

// Database pings the database handle.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	return monitoring.Check{Name: "database", Run: func(ctx context.Context) monitoring.Result {
		if db == nil {
			return monitoring.Result{Status: monitoring.StatusDown, Details: "database not configured"}
		}
		sqlDB, err := db.DB()
		if err != nil {
			return monitoring.FromError(err, "")
		}
		ctx, cancel := context.WithTimeout(ctx, orDefault(timeout))
		defer cancel()
		return monitoring.FromError(sqlDB.PingContext(ctx), "")
	}}
}

// Cache pings the shared cache. A nil client means the database-backed cache is in
// use and is reported as up.
func Cache(client Pinger, timeout time.Duration) monitoring.Check {
	return monitoring.Check{Name: "cache", Run: func(ctx context.Context) monitoring.Result {
		if client == nil {
			return monitoring.Result{Status: monitoring.StatusUp, Details: "database cache"}
		}
		ctx, cancel := context.WithTimeout(ctx, orDefault(timeout))
		defer cancel()
		return monitoring.FromError(client.Ping(ctx), "redis")
	}}
}

// FieldList loads the stored field list and reports how many fields it derives.
func FieldList(source FieldSource) monitoring.Check {
	return monitoring.Check{Name: "field_list", Run: func(ctx context.Context) monitoring.Result {
		def, err := source.Get(ctx)
		if err != nil {
			return monitoring.FromError(err, "")
		}
		return monitoring.Result{Status: monitoring.StatusUp, Details: fmt.Sprintf("%d fields (%s)", def.Fields.Len(), def.Format)}
	}}
}

// Dependencies reports modules the profile module requires but cannot find.
func Dependencies(checker DependencyChecker) monitoring.Check {
	return monitoring.Check{Name: "dependencies", Run: func(ctx context.Context) monitoring.Result {
		if err := checker.CheckDependencies(ctx); err != nil {
			return monitoring.Result{Status: monitoring.StatusDegraded, Details: err.Error()}
		}
		return monitoring.Result{Status: monitoring.StatusUp}
	}}
}

func orDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return defaultTimeout
	}
	return timeout
}
