package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/versus/internal/clock"
	scoredomain "github.com/smallbiznis/versus/internal/score/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultHistoryLimit = 50

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  scoredomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  scoredomain.Repository
}

func New(p Params) scoredomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("score.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Seed(ctx context.Context, itemID, categoryID string) (*scoredomain.Response, error) {
	item, category, err := s.parsePair(itemID, categoryID)
	if err != nil {
		return nil, err
	}

	row := &scoredomain.Score{
		ID:         s.genID.Generate(),
		ItemID:     item,
		CategoryID: category,
		Score:      scoredomain.DefaultScore,
		CreatedAt:  s.clock.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, row); err != nil {
		return nil, err
	}

	return s.toResponse(row), nil
}

func (s *Service) Latest(ctx context.Context, itemID, categoryID string) (*scoredomain.Response, error) {
	item, category, err := s.parsePair(itemID, categoryID)
	if err != nil {
		return nil, err
	}

	row, err := s.repo.Latest(ctx, s.db, item, category)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, scoredomain.ErrNotFound
	}

	return s.toResponse(row), nil
}

func (s *Service) History(ctx context.Context, itemID, categoryID string, limit int) ([]scoredomain.Response, error) {
	item, category, err := s.parsePair(itemID, categoryID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := s.repo.History(ctx, s.db, item, category, limit)
	if err != nil {
		return nil, err
	}

	resp := make([]scoredomain.Response, 0, len(rows))
	for i := range rows {
		resp = append(resp, *s.toResponse(&rows[i]))
	}
	return resp, nil
}

func (s *Service) Rankings(ctx context.Context, categoryID string, limit, offset int) ([]scoredomain.RankingEntry, error) {
	category, err := scoredomain.ParseID(strings.TrimSpace(categoryID))
	if err != nil || category == 0 {
		return nil, scoredomain.ErrInvalidCategory
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.repo.Rankings(ctx, s.db, category, limit, offset)
	if err != nil {
		return nil, err
	}

	entries := make([]scoredomain.RankingEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, scoredomain.RankingEntry{
			Ranking:    offset + i + 1,
			ItemID:     rows[i].ItemID.String(),
			CategoryID: rows[i].CategoryID.String(),
			Score:      rows[i].Score,
		})
	}
	return entries, nil
}

func (s *Service) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if cutoff.IsZero() {
		return 0, scoredomain.ErrInvalidCutoff
	}

	deleted, err := s.repo.DeleteBefore(ctx, s.db, cutoff)
	if err != nil {
		return 0, err
	}

	s.log.Info("purged score history",
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", deleted),
	)
	return deleted, nil
}

func (s *Service) parsePair(itemID, categoryID string) (snowflake.ID, snowflake.ID, error) {
	item, err := scoredomain.ParseID(strings.TrimSpace(itemID))
	if err != nil || item == 0 {
		return 0, 0, scoredomain.ErrInvalidItem
	}

	category, err := scoredomain.ParseID(strings.TrimSpace(categoryID))
	if err != nil || category == 0 {
		return 0, 0, scoredomain.ErrInvalidCategory
	}

	return item, category, nil
}

func (s *Service) toResponse(row *scoredomain.Score) *scoredomain.Response {
	return &scoredomain.Response{
		ID:         row.ID.String(),
		ItemID:     row.ItemID.String(),
		CategoryID: row.CategoryID.String(),
		Score:      row.Score,
		CreatedAt:  row.CreatedAt,
	}
}
