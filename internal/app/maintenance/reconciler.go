package maintenance

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/labhubhq/labhub/internal/models"
	"github.com/labhubhq/labhub/pkg/logger"
)

const defaultReconcileSpec = "@every 5m"

// Reconciler repairs join requests that were marked approved without a
// committed membership. The approval path commits the status transition
// before the membership insert, so a failure in between leaves an approved
// request with no membership row; this job closes that gap.
type Reconciler struct {
	db       *gorm.DB
	cron     *cron.Cron
	schedule string
	log      *zap.Logger
}

// Option customises the Reconciler.
type Option func(*Reconciler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(r *Reconciler) {
		if c != nil {
			r.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for the reconciliation job.
func WithSchedule(spec string) Option {
	return func(r *Reconciler) {
		if spec != "" {
			r.schedule = spec
		}
	}
}

// NewReconciler constructs a Reconciler with sensible defaults.
func NewReconciler(db *gorm.DB, opts ...Option) *Reconciler {
	reconciler := &Reconciler{
		db:       db,
		schedule: defaultReconcileSpec,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(reconciler)
	}

	if reconciler.cron == nil {
		reconciler.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return reconciler
}

// Start registers the reconciliation job and launches the scheduler.
func (r *Reconciler) Start() error {
	if r.db == nil {
		return nil
	}

	if _, err := r.cron.AddFunc(r.schedule, func() {
		repaired, err := r.RunOnce(context.Background())
		if err != nil {
			r.log.Warn("approval reconciliation failed", zap.Error(err))
			return
		}
		if repaired > 0 {
			r.log.Info("repaired partial approvals", zap.Int64("count", repaired))
		}
	}); err != nil {
		return err
	}

	r.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (r *Reconciler) Stop() context.Context {
	if r.cron == nil {
		return context.Background()
	}
	return r.cron.Stop()
}

// RunOnce creates the missing member-role membership for every approved
// request that lacks one, returning the number of repairs made.
func (r *Reconciler) RunOnce(ctx context.Context) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if r.db == nil {
		return 0, nil
	}

	var orphans []models.JoinRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", models.JoinRequestApproved).
		Where("NOT EXISTS (SELECT 1 FROM memberships m WHERE m.group_id = join_requests.group_id AND m.user_id = join_requests.user_id)").
		Find(&orphans).Error
	if err != nil {
		return 0, fmt.Errorf("reconciler: find orphaned approvals: %w", err)
	}

	var repaired int64
	for _, request := range orphans {
		membership := models.Membership{
			GroupID: request.GroupID,
			UserID:  request.UserID,
			Role:    models.RoleMember,
		}
		err := r.db.WithContext(ctx).
			Where(models.Membership{GroupID: request.GroupID, UserID: request.UserID}).
			Attrs(membership).
			FirstOrCreate(&models.Membership{}).Error
		if err != nil {
			return repaired, fmt.Errorf("reconciler: create membership for request %s: %w", request.ID, err)
		}
		repaired++

		r.log.Info("created missing membership",
			zap.String("request_id", request.ID),
			zap.String("group_id", request.GroupID),
			zap.String("user_id", request.UserID),
		)
	}

	return repaired, nil
}
