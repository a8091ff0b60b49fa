package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	scoredomain "github.com/smallbiznis/versus/internal/score/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() scoredomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, s *scoredomain.Score) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO scores (id, item_id, category_id, score, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		s.ID,
		s.ItemID,
		s.CategoryID,
		s.Score,
		s.CreatedAt,
	).Error
}

func (r *repo) Latest(ctx context.Context, db *gorm.DB, itemID, categoryID snowflake.ID) (*scoredomain.Score, error) {
	var score scoredomain.Score
	err := db.WithContext(ctx).Raw(
		`SELECT id, item_id, category_id, score, created_at
		 FROM scores
		 WHERE item_id = ? AND category_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		itemID,
		categoryID,
	).Scan(&score).Error
	if err != nil {
		return nil, err
	}
	if score.ID == 0 {
		return nil, nil
	}
	return &score, nil
}

func (r *repo) History(ctx context.Context, db *gorm.DB, itemID, categoryID snowflake.ID, limit int) ([]scoredomain.Score, error) {
	var scores []scoredomain.Score
	err := db.WithContext(ctx).Raw(
		`SELECT id, item_id, category_id, score, created_at
		 FROM scores
		 WHERE item_id = ? AND category_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		itemID,
		categoryID,
		limit,
	).Scan(&scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// Rankings returns the latest score of every item in a category, ordered by
// score descending. "Latest" is resolved row-locally: a row qualifies when no
// newer row exists for the same item, breaking created_at ties by id.
func (r *repo) Rankings(ctx context.Context, db *gorm.DB, categoryID snowflake.ID, limit, offset int) ([]scoredomain.Score, error) {
	var scores []scoredomain.Score
	err := db.WithContext(ctx).Raw(
		`SELECT s.id, s.item_id, s.category_id, s.score, s.created_at
		 FROM scores s
		 WHERE s.category_id = ?
		   AND NOT EXISTS (
		     SELECT 1 FROM scores newer
		     WHERE newer.category_id = s.category_id
		       AND newer.item_id = s.item_id
		       AND (newer.created_at > s.created_at
		         OR (newer.created_at = s.created_at AND newer.id > s.id))
		   )
		 ORDER BY s.score DESC, s.item_id ASC
		 LIMIT ? OFFSET ?`,
		categoryID,
		limit,
		offset,
	).Scan(&scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}

func (r *repo) DeleteBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM scores WHERE created_at < ?`, cutoff)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
