// Package seed bootstraps a demo category so a fresh install has something
// to vote on.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	categorydomain "github.com/smallbiznis/versus/internal/category/domain"
	itemdomain "github.com/smallbiznis/versus/internal/item/domain"
	scoredomain "github.com/smallbiznis/versus/internal/score/domain"
	"gorm.io/gorm"
)

const (
	demoCategorySlug = "demo"
	demoCategoryName = "Demo"
)

var demoItemNames = []string{"Alpha", "Bravo", "Charlie", "Delta"}

// EnsureDemoCategory creates the demo category with a few items and their
// entry scores. Safe to call repeatedly: it does nothing when the category
// already exists.
func EnsureDemoCategory(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing categorydomain.Category
		err := tx.WithContext(ctx).Raw(
			`SELECT id, slug FROM categories WHERE slug = ?`,
			demoCategorySlug,
		).Scan(&existing).Error
		if err != nil {
			return err
		}
		if existing.ID != 0 {
			return nil
		}

		now := time.Now().UTC()
		category := categorydomain.Category{
			ID:          node.Generate(),
			Slug:        demoCategorySlug,
			Name:        demoCategoryName,
			Description: "Seeded demo category",
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.WithContext(ctx).Create(&category).Error; err != nil {
			return err
		}

		for _, name := range demoItemNames {
			item := itemdomain.Item{
				ID:         node.Generate(),
				CategoryID: category.ID,
				Name:       name,
				Active:     true,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
				return err
			}

			score := scoredomain.Score{
				ID:         node.Generate(),
				ItemID:     item.ID,
				CategoryID: category.ID,
				Score:      scoredomain.DefaultScore,
				CreatedAt:  now,
			}
			if err := tx.WithContext(ctx).Create(&score).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
