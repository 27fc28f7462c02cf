package reconcile

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"gauge-erp-backend/config"
	"gauge-erp-backend/internal/lifecycle"
)

// Runner schedules the batch status reconciliation job. One runner is the
// single intended invoker; the job itself carries no mutual-exclusion guard.
type Runner struct {
	cfg  config.ReconcileConfig
	svc  *lifecycle.Service
	log  logrus.FieldLogger
	cron *cron.Cron
}

// NewRunner creates a reconciliation runner from config.
func NewRunner(cfg config.ReconcileConfig, svc *lifecycle.Service, log logrus.FieldLogger) *Runner {
	return &Runner{
		cfg:  cfg,
		svc:  svc,
		log:  log,
		cron: cron.New(),
	}
}

// Start registers the cron entry and begins the schedule. It returns
// immediately; the cron scheduler runs on its own goroutine until ctx is
// cancelled.
func (r *Runner) Start(ctx context.Context) error {
	if !r.cfg.Enabled {
		r.log.Info("reconciliation is disabled, not scheduling")
		return nil
	}

	if r.cfg.RunAtStartup {
		r.runOnce(ctx)
	}

	_, err := r.cron.AddFunc(r.cfg.Schedule, func() { r.runOnce(ctx) })
	if err != nil {
		return err
	}
	r.cron.Start()

	go func() {
		<-ctx.Done()
		<-r.cron.Stop().Done()
	}()

	r.log.WithField("schedule", r.cfg.Schedule).Info("reconciliation scheduled")
	return nil
}

func (r *Runner) runOnce(ctx context.Context) {
	result, err := r.svc.Reconcile(ctx)
	if err != nil {
		r.log.WithError(err).Warn("reconciliation run failed")
		return
	}
	r.log.WithFields(logrus.Fields{
		"total":   result.Total,
		"updated": result.Updated,
	}).Info("reconciliation run complete")
}
