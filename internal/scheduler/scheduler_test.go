package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	categorydomain "github.com/smallbiznis/versus/internal/category/domain"
	categoryrepository "github.com/smallbiznis/versus/internal/category/repository"
	"github.com/smallbiznis/versus/internal/clock"
	"github.com/smallbiznis/versus/internal/config"
	obsmetrics "github.com/smallbiznis/versus/internal/observability/metrics"
	scoredomain "github.com/smallbiznis/versus/internal/score/domain"
	scorerepository "github.com/smallbiznis/versus/internal/score/repository"
	"github.com/smallbiznis/versus/internal/snapshot"
	snapshotdomain "github.com/smallbiznis/versus/internal/snapshot/domain"
	snapshotrepository "github.com/smallbiznis/versus/internal/snapshot/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func swapPrometheusRegistry(t *testing.T) {
	t.Helper()
	registry := prometheus.NewRegistry()
	oldRegisterer := prometheus.DefaultRegisterer
	oldGatherer := prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry
	obsmetrics.ResetSchedulerMetricsForTest()
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = oldRegisterer
		prometheus.DefaultGatherer = oldGatherer
		obsmetrics.ResetSchedulerMetricsForTest()
	})
}

type schedulerFixture struct {
	sched      *Scheduler
	db         *gorm.DB
	clock      *clock.FakeClock
	categoryID snowflake.ID
}

func setupScheduler(t *testing.T, cfg Config) *schedulerFixture {
	t.Helper()
	swapPrometheusRegistry(t)

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&categorydomain.Category{},
		&scoredomain.Score{},
		&snapshotdomain.Snapshot{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC))

	categoryID := node.Generate()
	require.NoError(t, categoryrepository.Provide().Insert(context.Background(), db, &categorydomain.Category{
		ID:        categoryID,
		Slug:      "demo",
		Name:      "Demo",
		Active:    true,
		CreatedAt: fc.Now(),
		UpdatedAt: fc.Now(),
	}))
	require.NoError(t, scorerepository.Provide().Insert(context.Background(), db, &scoredomain.Score{
		ID:         node.Generate(),
		ItemID:     node.Generate(),
		CategoryID: categoryID,
		Score:      1000,
		CreatedAt:  fc.Now(),
	}))

	archiver := snapshot.NewArchiver(snapshot.Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      fc,
		Categories: categoryrepository.Provide(),
		Scores:     scorerepository.Provide(),
		Snapshots:  snapshotrepository.Provide(),
		Holder:     config.NewStaticVotingConfigHolder(config.DefaultVotingConfig()),
		Metrics:    nil,
	})

	sched, err := New(Params{
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fc,
		Archiver: archiver,
		Config:   cfg,
	})
	require.NoError(t, err)

	return &schedulerFixture{sched: sched, db: db, clock: fc, categoryID: categoryID}
}

func (f *schedulerFixture) snapshotCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Raw(`SELECT COUNT(1) FROM snapshots`).Scan(&count).Error)
	return count
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunOnceCapturesWhenDue(t *testing.T) {
	f := setupScheduler(t, Config{CaptureInterval: time.Hour})

	require.NoError(t, f.sched.RunOnce(context.Background()))
	assert.Equal(t, int64(1), f.snapshotCount(t))

	// Not due again until the capture interval elapses.
	f.clock.Advance(30 * time.Minute)
	require.NoError(t, f.sched.RunOnce(context.Background()))
	assert.Equal(t, int64(1), f.snapshotCount(t))

	f.clock.Advance(30 * time.Minute)
	require.NoError(t, f.sched.RunOnce(context.Background()))
	assert.Equal(t, int64(2), f.snapshotCount(t))
}

func TestRunOnceHonorsEnabledJobs(t *testing.T) {
	f := setupScheduler(t, Config{EnabledJobs: []string{JobSnapshotCleanup}})

	require.NoError(t, f.sched.RunOnce(context.Background()))
	assert.Equal(t, int64(0), f.snapshotCount(t))
}

func TestRunOnceCleanupPurgesExpiredRows(t *testing.T) {
	f := setupScheduler(t, Config{EnabledJobs: []string{JobSnapshotCleanup}})

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	today := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, snapshotrepository.Provide().InsertBatch(context.Background(), f.db, []snapshotdomain.Snapshot{
		{
			ID:         node.Generate(),
			ItemID:     node.Generate(),
			CategoryID: f.categoryID,
			Score:      900,
			Ranking:    1,
			Date:       today.AddDate(0, 0, -90),
		},
		{
			ID:         node.Generate(),
			ItemID:     node.Generate(),
			CategoryID: f.categoryID,
			Score:      1100,
			Ranking:    1,
			Date:       today,
		},
	}))

	require.NoError(t, f.sched.RunOnce(context.Background()))
	assert.Equal(t, int64(1), f.snapshotCount(t))
}

func TestRunJobTimeoutIsSoftFailure(t *testing.T) {
	f := setupScheduler(t, Config{JobTimeout: 5 * time.Millisecond})

	err := f.sched.runJob(context.Background(), "timeout_job", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.NoError(t, err)
}
