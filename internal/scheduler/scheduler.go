// Package scheduler drives the periodic snapshot jobs: capturing dated
// leaderboards and purging expired ones.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/versus/internal/clock"
	obsmetrics "github.com/smallbiznis/versus/internal/observability/metrics"
	"github.com/smallbiznis/versus/internal/snapshot"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

const (
	JobSnapshotCapture = "snapshot_capture"
	JobSnapshotCleanup = "snapshot_cleanup"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Archiver *snapshot.Archiver
	Config   Config `optional:"true"`
}

type Scheduler struct {
	log      *zap.Logger
	cfg      Config
	genID    *snowflake.Node
	clock    clock.Clock
	archiver *snapshot.Archiver

	nextCapture time.Time
	nextCleanup time.Time
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.Archiver == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:      p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:      p.Config.withDefaults(),
		genID:    p.GenID,
		clock:    p.Clock,
		archiver: p.Archiver,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	runID := s.genID.Generate().String()
	log := s.log.With(
		zap.String("job", name),
		zap.String("run_id", runID),
	)
	log.Info("scheduler.job.start")

	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	duration := time.Since(start)
	schedMetrics.ObserveJobDuration(name, duration)

	if err == nil {
		log.Info("scheduler.job.finish",
			zap.Int64("duration_ms", duration.Milliseconds()),
		)
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)

	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}

	log.Error("scheduler.job.failed", zap.Error(err))
	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce runs every due job. Job due times are tracked against the injected
// clock so tests can advance time deterministically.
func (s *Scheduler) RunOnce(parent context.Context) error {
	now := s.clock.Now()
	var err error

	if s.isJobEnabled(JobSnapshotCapture) && !now.Before(s.nextCapture) {
		err = errors.Join(err, s.runJob(parent, JobSnapshotCapture, s.SnapshotCaptureJob))
		s.nextCapture = now.Add(s.cfg.CaptureInterval)
	}

	if s.isJobEnabled(JobSnapshotCleanup) && !now.Before(s.nextCleanup) {
		err = errors.Join(err, s.runJob(parent, JobSnapshotCleanup, s.SnapshotCleanupJob))
		s.nextCleanup = now.Add(s.cfg.CleanupInterval)
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := time.Since(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// If EnabledJobs is empty, all jobs are enabled by default.
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

func (s *Scheduler) SnapshotCaptureJob(ctx context.Context) error {
	written, err := s.archiver.CaptureAll(ctx)
	if err != nil {
		return err
	}
	if written > 0 {
		obsmetrics.Scheduler().AddBatchProcessed(JobSnapshotCapture, written)
	}
	return nil
}

func (s *Scheduler) SnapshotCleanupJob(ctx context.Context) error {
	deleted, err := s.archiver.Cleanup(ctx)
	if err != nil {
		return err
	}
	if deleted > 0 {
		obsmetrics.Scheduler().AddBatchProcessed(JobSnapshotCleanup, int(deleted))
	}
	return nil
}
