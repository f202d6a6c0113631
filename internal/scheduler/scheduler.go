// Package scheduler runs the periodic cache warm-up so dashboard requests
// rarely pay for a recompute.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ignite/connect-metrics/internal/daterange"
	"github.com/ignite/connect-metrics/internal/pkg/logger"
	"github.com/ignite/connect-metrics/internal/service/dashboard"
)

// Refresher recomputes and stores one view. *dashboard.Service satisfies it.
type Refresher interface {
	Refresh(ctx context.Context, view dashboard.View, filter daterange.Filter, p dashboard.Params) (dashboard.Result, error)
}

const jobTimeout = 5 * time.Minute

type WarmupScheduler struct {
	cronEngine *cron.Cron
	refresher  Refresher
	spec       string
	views      []dashboard.View
	filters    []daterange.Filter
}

// NewWarmupScheduler refreshes views for each filter on spec, evaluated in
// loc.
func NewWarmupScheduler(r Refresher, spec string, loc *time.Location, views []dashboard.View, filters []daterange.Filter) *WarmupScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &WarmupScheduler{
		cronEngine: cron.New(cron.WithLocation(loc)),
		refresher:  r,
		spec:       spec,
		views:      views,
		filters:    filters,
	}
}

// Start registers the job and starts the cron engine.
func (s *WarmupScheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("add warm-up job %q: %w", s.spec, err)
	}
	s.cronEngine.Start()
	logger.Info("cache warm-up scheduled", "spec", s.spec, "views", len(s.views), "filters", len(s.filters))
	return nil
}

// RunOnce refreshes every configured view and filter and returns how many
// succeeded. Failures are logged and do not stop the run.
func (s *WarmupScheduler) RunOnce(ctx context.Context) int {
	ok := 0
	for _, v := range s.views {
		for _, f := range s.filters {
			if ctx.Err() != nil {
				return ok
			}
			if _, err := s.refresher.Refresh(ctx, v, f, dashboard.Params{}); err != nil {
				logger.Error("cache warm-up failed", "view", v, "filter", f, "error", err)
				continue
			}
			ok++
		}
	}
	logger.Info("cache warm-up finished", "refreshed", ok)
	return ok
}

// Stop waits for a running job to finish or ctx to expire.
func (s *WarmupScheduler) Stop(ctx context.Context) {
	done := s.cronEngine.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.Warn("warm-up job still running at shutdown")
	}
}
