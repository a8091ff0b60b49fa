package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	votedomain "github.com/smallbiznis/versus/internal/vote/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() votedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, v *votedomain.Vote) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO votes (
		   id, category_id, contestant_id, opponent_id, winner_id, user_id,
		   contestant_previous_score, contestant_current_score, contestant_win_probability,
		   opponent_previous_score, opponent_current_score, opponent_win_probability,
		   k_factor, abused, metadata, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID,
		v.CategoryID,
		v.ContestantID,
		v.OpponentID,
		v.WinnerID,
		v.UserID,
		v.ContestantPreviousScore,
		v.ContestantCurrentScore,
		v.ContestantWinProbability,
		v.OpponentPreviousScore,
		v.OpponentCurrentScore,
		v.OpponentWinProbability,
		v.KFactor,
		v.Abused,
		v.Metadata,
		v.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*votedomain.Vote, error) {
	var vote votedomain.Vote
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM votes WHERE id = ?`,
		id,
	).Scan(&vote).Error
	if err != nil {
		return nil, err
	}
	if vote.ID == 0 {
		return nil, nil
	}
	return &vote, nil
}

func (r *repo) ListByCategory(ctx context.Context, db *gorm.DB, categoryID, itemID, afterID snowflake.ID, limit int) ([]votedomain.Vote, error) {
	query := `SELECT * FROM votes WHERE category_id = ?`
	args := []any{categoryID}

	if itemID != 0 {
		query += ` AND (contestant_id = ? OR opponent_id = ?)`
		args = append(args, itemID, itemID)
	}
	if afterID != 0 {
		query += ` AND id < ?`
		args = append(args, afterID)
	}

	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	var votes []votedomain.Vote
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(1) FROM votes`).Scan(&count).Error
	return count, err
}

func (r *repo) CountByCategory(ctx context.Context, db *gorm.DB, categoryID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM votes WHERE category_id = ?`,
		categoryID,
	).Scan(&count).Error
	return count, err
}

func (r *repo) CountParticipant(ctx context.Context, db *gorm.DB, itemID, categoryID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM votes
		 WHERE category_id = ? AND (contestant_id = ? OR opponent_id = ?)`,
		categoryID,
		itemID,
		itemID,
	).Scan(&count).Error
	return count, err
}

func (r *repo) ListByUserBetween(ctx context.Context, db *gorm.DB, userID snowflake.ID, from, to time.Time) ([]votedomain.Vote, error) {
	var votes []votedomain.Vote
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM votes
		 WHERE user_id = ? AND created_at >= ? AND created_at < ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
		from,
		to,
	).Scan(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (r *repo) DeleteAfter(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM votes WHERE created_at > ?`, cutoff)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repo) StatsDaily(ctx context.Context, db *gorm.DB, since time.Time) ([]votedomain.DailyCount, error) {
	// DATE() is understood by sqlite, mysql and postgres alike.
	var buckets []votedomain.DailyCount
	err := db.WithContext(ctx).Raw(
		`SELECT DATE(created_at) AS date, COUNT(1) AS count
		 FROM votes
		 WHERE created_at >= ?
		 GROUP BY DATE(created_at)
		 ORDER BY date DESC`,
		since,
	).Scan(&buckets).Error
	if err != nil {
		return nil, err
	}
	return buckets, nil
}
