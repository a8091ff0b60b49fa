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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupCategoryService(t *testing.T) categorydomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&categorydomain.Category{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)),
		Repo:  categoryrepository.Provide(),
	})
}

func TestCreateNormalizesSlug(t *testing.T) {
	svc := setupCategoryService(t)

	resp, err := svc.Create(context.Background(), categorydomain.CreateRequest{
		Slug: "  Best-Coffee  ",
		Name: " Best Coffee ",
	})
	require.NoError(t, err)
	assert.Equal(t, "best-coffee", resp.Slug)
	assert.Equal(t, "Best Coffee", resp.Name)
	assert.True(t, resp.Active)
}

func TestCreateRejectsBlankFields(t *testing.T) {
	svc := setupCategoryService(t)

	_, err := svc.Create(context.Background(), categorydomain.CreateRequest{Slug: "  ", Name: "x"})
	assert.ErrorIs(t, err, categorydomain.ErrInvalidSlug)

	_, err = svc.Create(context.Background(), categorydomain.CreateRequest{Slug: "ok", Name: "  "})
	assert.ErrorIs(t, err, categorydomain.ErrInvalidName)
}

func TestCreateDuplicateSlug(t *testing.T) {
	svc := setupCategoryService(t)

	_, err := svc.Create(context.Background(), categorydomain.CreateRequest{Slug: "coffee", Name: "Coffee"})
	require.NoError(t, err)

	// Case only differs; normalization makes it collide.
	_, err = svc.Create(context.Background(), categorydomain.CreateRequest{Slug: "COFFEE", Name: "Coffee 2"})
	assert.ErrorIs(t, err, categorydomain.ErrDuplicate)
}

func TestUpdatePartialFields(t *testing.T) {
	svc := setupCategoryService(t)

	created, err := svc.Create(context.Background(), categorydomain.CreateRequest{Slug: "tea", Name: "Tea"})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(context.Background(), categorydomain.UpdateRequest{
		ID:     created.ID,
		Active: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Tea", updated.Name)
	assert.False(t, updated.Active)

	name := "Loose Leaf"
	updated, err = svc.Update(context.Background(), categorydomain.UpdateRequest{
		ID:   created.ID,
		Name: &name,
	})
	require.NoError(t, err)
	assert.Equal(t, "Loose Leaf", updated.Name)
	assert.False(t, updated.Active)
}

func TestGetByIDUnknown(t *testing.T) {
	svc := setupCategoryService(t)

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), node.Generate().String())
	assert.ErrorIs(t, err, categorydomain.ErrNotFound)
}
