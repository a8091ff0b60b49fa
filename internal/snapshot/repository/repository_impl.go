package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	snapshotdomain "github.com/smallbiznis/versus/internal/snapshot/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() snapshotdomain.Repository {
	return &repo{}
}

func (r *repo) InsertBatch(ctx context.Context, db *gorm.DB, snapshots []snapshotdomain.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&snapshots).Error
}

func (r *repo) ListByCategory(ctx context.Context, db *gorm.DB, categoryID snowflake.ID, limit int) ([]snapshotdomain.Snapshot, error) {
	var snapshots []snapshotdomain.Snapshot
	err := db.WithContext(ctx).Raw(
		`SELECT id, item_id, category_id, score, ranking, date
		 FROM snapshots
		 WHERE category_id = ?
		 ORDER BY date DESC, ranking ASC
		 LIMIT ?`,
		categoryID,
		limit,
	).Scan(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *repo) ListByItem(ctx context.Context, db *gorm.DB, itemID, categoryID snowflake.ID, limit int) ([]snapshotdomain.Snapshot, error) {
	var snapshots []snapshotdomain.Snapshot
	err := db.WithContext(ctx).Raw(
		`SELECT id, item_id, category_id, score, ranking, date
		 FROM snapshots
		 WHERE item_id = ? AND category_id = ?
		 ORDER BY date DESC
		 LIMIT ?`,
		itemID,
		categoryID,
		limit,
	).Scan(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

func (r *repo) DeleteBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM snapshots WHERE date < ?`, cutoff)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
