package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	categorydomain "github.com/smallbiznis/versus/internal/category/domain"
	categoryrepository "github.com/smallbiznis/versus/internal/category/repository"
	"github.com/smallbiznis/versus/internal/clock"
	itemdomain "github.com/smallbiznis/versus/internal/item/domain"
	itemrepository "github.com/smallbiznis/versus/internal/item/repository"
	scoredomain "github.com/smallbiznis/versus/internal/score/domain"
	scorerepository "github.com/smallbiznis/versus/internal/score/repository"
	scoreservice "github.com/smallbiznis/versus/internal/score/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type itemFixture struct {
	svc        itemdomain.Service
	scores     scoredomain.Service
	db         *gorm.DB
	node       *snowflake.Node
	categoryID snowflake.ID
}

func setupItemService(t *testing.T) *itemFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&categorydomain.Category{},
		&itemdomain.Item{},
		&scoredomain.Score{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC))

	scores := scoreservice.New(scoreservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fc,
		Repo:  scorerepository.Provide(),
	})

	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      fc,
		Repo:       itemrepository.Provide(),
		Categories: categoryrepository.Provide(),
		Scores:     scores,
	})

	categoryID := node.Generate()
	require.NoError(t, categoryrepository.Provide().Insert(context.Background(), db, &categorydomain.Category{
		ID:        categoryID,
		Slug:      "demo",
		Name:      "Demo",
		Active:    true,
		CreatedAt: fc.Now(),
		UpdatedAt: fc.Now(),
	}))

	return &itemFixture{svc: svc, scores: scores, db: db, node: node, categoryID: categoryID}
}

func TestCreateSeedsEntryScore(t *testing.T) {
	f := setupItemService(t)

	resp, err := f.svc.Create(context.Background(), itemdomain.CreateRequest{
		CategoryID: f.categoryID.String(),
		Name:       " Espresso ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Espresso", resp.Name)
	assert.True(t, resp.Active)

	latest, err := f.scores.Latest(context.Background(), resp.ID, f.categoryID.String())
	require.NoError(t, err)
	assert.Equal(t, scoredomain.DefaultScore, latest.Score)
}

func TestCreateRequiresExistingCategory(t *testing.T) {
	f := setupItemService(t)

	_, err := f.svc.Create(context.Background(), itemdomain.CreateRequest{
		CategoryID: f.node.Generate().String(),
		Name:       "Orphan",
	})
	assert.ErrorIs(t, err, itemdomain.ErrInvalidCategory)
}

func TestUpdateTogglesActive(t *testing.T) {
	f := setupItemService(t)

	created, err := f.svc.Create(context.Background(), itemdomain.CreateRequest{
		CategoryID: f.categoryID.String(),
		Name:       "Latte",
	})
	require.NoError(t, err)

	inactive := false
	updated, err := f.svc.Update(context.Background(), itemdomain.UpdateRequest{
		ID:     created.ID,
		Active: &inactive,
	})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, "Latte", updated.Name)
}

func TestListByCategory(t *testing.T) {
	f := setupItemService(t)

	for _, name := range []string{"Alpha", "Bravo"} {
		_, err := f.svc.Create(context.Background(), itemdomain.CreateRequest{
			CategoryID: f.categoryID.String(),
			Name:       name,
		})
		require.NoError(t, err)
	}

	items, err := f.svc.ListByCategory(context.Background(), f.categoryID.String())
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
