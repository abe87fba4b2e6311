package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/atelierlabs/atelier/internal/cache"
	"github.com/atelierlabs/atelier/internal/services"
	"github.com/atelierlabs/atelier/pkg/logger"
)

const (
	defaultRetention   = 30 * 24 * time.Hour
	defaultInviteSpec  = "@daily"
	defaultCacheSpec   = "@hourly"
	defaultPruneOffset = "@weekly"
)

// Cleaner coordinates background maintenance: sweeping expired invitations,
// pruning terminal invitation records, and purging expired cache entries.
type Cleaner struct {
	invitations *services.InvitationService
	cacheStore  *cache.DatabaseStore
	cron        *cron.Cron
	log         *zap.Logger
	retention   time.Duration

	inviteSchedule string
	pruneSchedule  string
	cacheSchedule  string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithRetention adjusts how long terminal invitations are kept before pruning.
func WithRetention(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.retention = d
		}
	}
}

// WithInviteSchedule overrides the cron specification for the invitation sweep.
func WithInviteSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.inviteSchedule = spec
		}
	}
}

// WithCacheSchedule overrides the cron specification for cache purging.
func WithCacheSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.cacheSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil dependency skips the corresponding job.
func NewCleaner(invitations *services.InvitationService, cacheStore *cache.DatabaseStore, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		invitations:    invitations,
		cacheStore:     cacheStore,
		retention:      defaultRetention,
		inviteSchedule: defaultInviteSpec,
		pruneSchedule:  defaultPruneOffset,
		cacheSchedule:  defaultCacheSpec,
		log:            logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the jobs and launches the scheduler.
func (c *Cleaner) Start() error {
	if c.invitations != nil {
		if _, err := c.cron.AddFunc(c.inviteSchedule, func() {
			ctx := context.Background()
			if swept, err := c.invitations.SweepExpired(ctx); err != nil {
				c.log.Warn("invitation sweep failed", zap.Error(err))
			} else if swept > 0 {
				c.log.Info("swept expired invitations", zap.Int64("count", swept))
			}
		}); err != nil {
			return err
		}

		if _, err := c.cron.AddFunc(c.pruneSchedule, func() {
			ctx := context.Background()
			if _, err := c.invitations.PruneTerminal(ctx, c.retention); err != nil {
				c.log.Warn("invitation prune failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.cacheStore != nil {
		if _, err := c.cron.AddFunc(c.cacheSchedule, func() {
			ctx := context.Background()
			if _, err := c.cacheStore.PurgeExpired(ctx); err != nil {
				c.log.Warn("cache purge failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.invitations != nil {
		if _, err := c.invitations.SweepExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
		if _, err := c.invitations.PruneTerminal(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.cacheStore != nil {
		if _, err := c.cacheStore.PurgeExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
