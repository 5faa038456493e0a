package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SweeperID is the actor recorded on audit rows written by the sweep.
const SweeperID = "system:permission-sweeper"

type sweepService interface {
	Sweep(ctx context.Context, sweeperID string) (int, error)
}

type sweepMetrics interface {
	ObserveSweep(expired int, duration time.Duration)
}

// Sweeper periodically persists the EXPIRED transition for overdue
// permissions. Lazy expiry on reads keeps answers correct between runs; the
// sweep only bounds how stale the stored rows can get.
type Sweeper struct {
	cron    *cron.Cron
	perms   sweepService
	metrics sweepMetrics
	logger  *zap.Logger

	interval time.Duration
}

// NewSweeper constructs the sweeper. Metrics may be nil.
func NewSweeper(perms sweepService, metrics sweepMetrics, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		cron:     cron.New(),
		perms:    perms,
		metrics:  metrics,
		interval: interval,
		logger:   logger,
	}
}

// Start schedules the sweep and launches the cron loop.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc("@every "+s.interval.String(), func() {
		s.run(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Sugar().Infow("permission sweeper started", "interval", s.interval)
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Sugar().Infow("permission sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	start := time.Now()
	expired, err := s.perms.Sweep(ctx, SweeperID)
	if err != nil {
		s.logger.Sugar().Errorw("permission sweep failed", "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveSweep(expired, time.Since(start))
	}
}
