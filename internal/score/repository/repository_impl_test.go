package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	scoredomain "github.com/smallbiznis/versus/internal/score/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupScoreRepo(t *testing.T) (scoredomain.Repository, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&scoredomain.Score{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return Provide(), db, node
}

func TestLatestPrefersNewestRow(t *testing.T) {
	repo, db, node := setupScoreRepo(t)
	ctx := context.Background()

	itemID := node.Generate()
	categoryID := node.Generate()
	base := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

	for i, score := range []float64{1000, 1020, 1015} {
		require.NoError(t, repo.Insert(ctx, db, &scoredomain.Score{
			ID:         node.Generate(),
			ItemID:     itemID,
			CategoryID: categoryID,
			Score:      score,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	latest, err := repo.Latest(ctx, db, itemID, categoryID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 1015.0, latest.Score)
}

func TestLatestBreaksTimestampTiesByID(t *testing.T) {
	repo, db, node := setupScoreRepo(t)
	ctx := context.Background()

	itemID := node.Generate()
	categoryID := node.Generate()
	at := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

	first := node.Generate()
	second := node.Generate()
	require.NoError(t, repo.Insert(ctx, db, &scoredomain.Score{
		ID: first, ItemID: itemID, CategoryID: categoryID, Score: 1000, CreatedAt: at,
	}))
	require.NoError(t, repo.Insert(ctx, db, &scoredomain.Score{
		ID: second, ItemID: itemID, CategoryID: categoryID, Score: 1040, CreatedAt: at,
	}))

	latest, err := repo.Latest(ctx, db, itemID, categoryID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second, latest.ID)
}

func TestLatestReturnsNilWithoutHistory(t *testing.T) {
	repo, db, node := setupScoreRepo(t)

	latest, err := repo.Latest(context.Background(), db, node.Generate(), node.Generate())
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestRankingsUseLatestScorePerItem(t *testing.T) {
	repo, db, node := setupScoreRepo(t)
	ctx := context.Background()

	categoryID := node.Generate()
	base := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

	itemA := node.Generate()
	itemB := node.Generate()
	itemC := node.Generate()

	seed := func(itemID snowflake.ID, score float64, at time.Time) {
		require.NoError(t, repo.Insert(ctx, db, &scoredomain.Score{
			ID:         node.Generate(),
			ItemID:     itemID,
			CategoryID: categoryID,
			Score:      score,
			CreatedAt:  at,
		}))
	}

	// Item A peaked early and dropped; only the latest value may rank.
	seed(itemA, 1500, base)
	seed(itemA, 1200, base.Add(time.Hour))
	seed(itemB, 1300, base)
	seed(itemC, 1100, base)

	ranked, err := repo.Rankings(ctx, db, categoryID, 10, 0)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, itemB, ranked[0].ItemID)
	assert.Equal(t, 1300.0, ranked[0].Score)
	assert.Equal(t, itemA, ranked[1].ItemID)
	assert.Equal(t, 1200.0, ranked[1].Score)
	assert.Equal(t, itemC, ranked[2].ItemID)
}

func TestRankingsPaginateWithOffset(t *testing.T) {
	repo, db, node := setupScoreRepo(t)
	ctx := context.Background()

	categoryID := node.Generate()
	at := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)
	for _, score := range []float64{900, 1400, 1200, 1000} {
		require.NoError(t, repo.Insert(ctx, db, &scoredomain.Score{
			ID:         node.Generate(),
			ItemID:     node.Generate(),
			CategoryID: categoryID,
			Score:      score,
			CreatedAt:  at,
		}))
	}

	page, err := repo.Rankings(ctx, db, categoryID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 1000.0, page[0].Score)
	assert.Equal(t, 900.0, page[1].Score)
}

func TestDeleteBefore(t *testing.T) {
	repo, db, node := setupScoreRepo(t)
	ctx := context.Background()

	itemID := node.Generate()
	categoryID := node.Generate()
	cutoff := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, db, &scoredomain.Score{
		ID: node.Generate(), ItemID: itemID, CategoryID: categoryID, Score: 1000,
		CreatedAt: cutoff.Add(-time.Hour),
	}))
	require.NoError(t, repo.Insert(ctx, db, &scoredomain.Score{
		ID: node.Generate(), ItemID: itemID, CategoryID: categoryID, Score: 1010,
		CreatedAt: cutoff.Add(time.Hour),
	}))

	deleted, err := repo.DeleteBefore(ctx, db, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	history, err := repo.History(ctx, db, itemID, categoryID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1010.0, history[0].Score)
}
