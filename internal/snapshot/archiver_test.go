package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	categorydomain "github.com/smallbiznis/versus/internal/category/domain"
	categoryrepository "github.com/smallbiznis/versus/internal/category/repository"
	"github.com/smallbiznis/versus/internal/clock"
	"github.com/smallbiznis/versus/internal/config"
	scoredomain "github.com/smallbiznis/versus/internal/score/domain"
	scorerepository "github.com/smallbiznis/versus/internal/score/repository"
	snapshotdomain "github.com/smallbiznis/versus/internal/snapshot/domain"
	snapshotrepository "github.com/smallbiznis/versus/internal/snapshot/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type archiverFixture struct {
	archiver  *Archiver
	db        *gorm.DB
	node      *snowflake.Node
	clock     *clock.FakeClock
	snapshots snapshotdomain.Repository
}

func setupArchiver(t *testing.T, cfg config.VotingConfig) *archiverFixture {
	t.Helper()

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

	fc := clock.NewFakeClock(time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC))
	snapshots := snapshotrepository.Provide()

	archiver := NewArchiver(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      fc,
		Categories: categoryrepository.Provide(),
		Scores:     scorerepository.Provide(),
		Snapshots:  snapshots,
		Holder:     config.NewStaticVotingConfigHolder(cfg),
		Metrics:    nil,
	})

	return &archiverFixture{
		archiver:  archiver,
		db:        db,
		node:      node,
		clock:     fc,
		snapshots: snapshots,
	}
}

func (f *archiverFixture) seedCategory(t *testing.T, active bool) snowflake.ID {
	t.Helper()
	now := f.clock.Now()
	category := &categorydomain.Category{
		ID:        f.node.Generate(),
		Slug:      "cat-" + f.node.Generate().String(),
		Name:      "Category",
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, categoryrepository.Provide().Insert(context.Background(), f.db, category))
	return category.ID
}

func (f *archiverFixture) seedScores(t *testing.T, categoryID snowflake.ID, scores []float64) []snowflake.ID {
	t.Helper()
	itemIDs := make([]snowflake.ID, 0, len(scores))
	repo := scorerepository.Provide()
	for _, score := range scores {
		itemID := f.node.Generate()
		itemIDs = append(itemIDs, itemID)
		require.NoError(t, repo.Insert(context.Background(), f.db, &scoredomain.Score{
			ID:         f.node.Generate(),
			ItemID:     itemID,
			CategoryID: categoryID,
			Score:      score,
			CreatedAt:  f.clock.Now(),
		}))
	}
	return itemIDs
}

func TestCaptureCategoryRanksAcrossPages(t *testing.T) {
	cfg := config.DefaultVotingConfig()
	cfg.SnapshotPageSize = 2
	f := setupArchiver(t, cfg)

	categoryID := f.seedCategory(t, true)
	f.seedScores(t, categoryID, []float64{1200, 1500, 900, 1350, 1100})

	written, err := f.archiver.CaptureCategory(context.Background(), categoryID)
	require.NoError(t, err)
	assert.Equal(t, 5, written)

	rows, err := f.snapshots.ListByCategory(context.Background(), f.db, categoryID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	wantDate := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	wantScores := []float64{1500, 1350, 1200, 1100, 900}
	for i, row := range rows {
		assert.Equal(t, i+1, row.Ranking)
		assert.Equal(t, wantScores[i], row.Score)
		assert.True(t, row.Date.Equal(wantDate), "row %d dated %s", i, row.Date)
	}
}

func TestCaptureUsesLatestScorePerItem(t *testing.T) {
	f := setupArchiver(t, config.DefaultVotingConfig())

	categoryID := f.seedCategory(t, true)
	itemIDs := f.seedScores(t, categoryID, []float64{1000, 1400})

	// A newer row supersedes item 0's earlier score.
	f.clock.Advance(time.Hour)
	require.NoError(t, scorerepository.Provide().Insert(context.Background(), f.db, &scoredomain.Score{
		ID:         f.node.Generate(),
		ItemID:     itemIDs[0],
		CategoryID: categoryID,
		Score:      1600,
		CreatedAt:  f.clock.Now(),
	}))

	written, err := f.archiver.CaptureCategory(context.Background(), categoryID)
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	rows, err := f.snapshots.ListByCategory(context.Background(), f.db, categoryID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, itemIDs[0], rows[0].ItemID)
	assert.Equal(t, 1600.0, rows[0].Score)
	assert.Equal(t, 1, rows[0].Ranking)
}

func TestCaptureAllSkipsInactiveCategories(t *testing.T) {
	f := setupArchiver(t, config.DefaultVotingConfig())

	activeID := f.seedCategory(t, true)
	inactiveID := f.seedCategory(t, false)
	f.seedScores(t, activeID, []float64{1000, 1200})
	f.seedScores(t, inactiveID, []float64{1300})

	written, err := f.archiver.CaptureAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	rows, err := f.snapshots.ListByCategory(context.Background(), f.db, inactiveID, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDoubleCaptureAccumulates(t *testing.T) {
	f := setupArchiver(t, config.DefaultVotingConfig())

	categoryID := f.seedCategory(t, true)
	f.seedScores(t, categoryID, []float64{1000, 1200})

	for i := 0; i < 2; i++ {
		written, err := f.archiver.CaptureCategory(context.Background(), categoryID)
		require.NoError(t, err)
		assert.Equal(t, 2, written)
	}

	// Same-day re-capture appends a second set of rows rather than
	// overwriting the first.
	rows, err := f.snapshots.ListByCategory(context.Background(), f.db, categoryID, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestCleanupHonorsRetention(t *testing.T) {
	cfg := config.DefaultVotingConfig()
	cfg.SnapshotRetentionDays = 60
	f := setupArchiver(t, cfg)

	categoryID := f.seedCategory(t, true)
	today := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	insert := func(date time.Time) {
		require.NoError(t, f.snapshots.InsertBatch(context.Background(), f.db, []snapshotdomain.Snapshot{{
			ID:         f.node.Generate(),
			ItemID:     f.node.Generate(),
			CategoryID: categoryID,
			Score:      1000,
			Ranking:    1,
			Date:       date,
		}}))
	}

	insert(today.AddDate(0, 0, -61))
	insert(today.AddDate(0, 0, -60))
	insert(today)

	deleted, err := f.archiver.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	rows, err := f.snapshots.ListByCategory(context.Background(), f.db, categoryID, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
