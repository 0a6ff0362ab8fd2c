// Package maintenance runs the periodic housekeeping jobs of the service.
package maintenance

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/userprofile/internal/services"
	"github.com/charlesng35/userprofile/pkg/logger"
)

const (
	defaultAuditRetentionDays = 90
	defaultCacheSpec          = "@every 15m"
	defaultAuditSpec          = "@daily"
)

// ExpiredPurger removes expired cache entries. cache.DatabaseStore implements it;
// Redis expires keys on its own.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type job struct {
	name string
	spec string
	run  func(ctx context.Context) (int64, error)
}

// Cleaner purges expired cache rows and audit entries older than the retention.
type Cleaner struct {
	cache     ExpiredPurger
	audit     *services.AuditService
	cron      *cron.Cron
	log       *zap.Logger
	retention int

	cacheSchedule string
	auditSchedule string
}

type Option func(*Cleaner)

// WithCron replaces the scheduler.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

func WithCacheSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.cacheSchedule = spec
		}
	}
}

func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// NewCleaner builds a Cleaner. A nil cache or audit service skips that job.
func NewCleaner(cache ExpiredPurger, audit *services.AuditService, opts ...Option) *Cleaner {
	c := &Cleaner{
		cache:         cache,
		audit:         audit,
		retention:     defaultAuditRetentionDays,
		cacheSchedule: defaultCacheSpec,
		auditSchedule: defaultAuditSpec,
		log:           logger.WithModule("maintenance"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cron == nil {
		c.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return c
}

func (c *Cleaner) jobs() []job {
	var jobs []job
	if c.cache != nil {
		jobs = append(jobs, job{name: "cache.purge", spec: c.cacheSchedule, run: c.cache.PurgeExpired})
	}
	if c.audit != nil && c.retention > 0 {
		jobs = append(jobs, job{name: "audit.retention", spec: c.auditSchedule, run: func(ctx context.Context) (int64, error) {
			return c.audit.CleanupOlderThan(ctx, c.retention)
		}})
	}
	return jobs
}

// Start schedules every enabled job and starts the scheduler. Nothing runs when no
// job is enabled.
func (c *Cleaner) Start() error {
	jobs := c.jobs()
	if len(jobs) == 0 {
		return nil
	}
	for _, j := range jobs {
		j := j
		if _, err := c.cron.AddFunc(j.spec, func() { c.execute(context.Background(), j) }); err != nil {
			return fmt.Errorf("maintenance: schedule %s %q: %w", j.name, j.spec, err)
		}
	}
	c.cron.Start()
	return nil
}

func (c *Cleaner) execute(ctx context.Context, j job) error {
	removed, err := j.run(ctx)
	if err != nil {
		c.log.Warn("maintenance job failed", zap.String("job", j.name), zap.Error(err))
		return fmt.Errorf("%s: %w", j.name, err)
	}
	if removed > 0 {
		c.log.Debug("maintenance job done", zap.String("job", j.name), zap.Int64("removed", removed))
	}
	return nil
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	return c.cron.Stop()
}

// Jobs reports how many jobs are scheduled.
func (c *Cleaner) Jobs() int {
	return len(c.cron.Entries())
}

// RunOnce runs every enabled job now, in order, and combines their errors.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var errs error
	for _, j := range c.jobs() {
		errs = multierr.Append(errs, c.execute(ctx, j))
	}
	return errs
}
