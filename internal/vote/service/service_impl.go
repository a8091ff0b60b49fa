package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/versus/internal/abuse"
	categorydomain "github.com/smallbiznis/versus/internal/category/domain"
	"github.com/smallbiznis/versus/internal/clock"
	"github.com/smallbiznis/versus/internal/config"
	"github.com/smallbiznis/versus/internal/elo"
	"github.com/smallbiznis/versus/internal/events"
	"github.com/smallbiznis/versus/internal/observability/metrics"
	scoredomain "github.com/smallbiznis/versus/internal/score/domain"
	votedomain "github.com/smallbiznis/versus/internal/vote/domain"
	"github.com/smallbiznis/versus/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const storageTimeout = 5 * time.Second

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       votedomain.Repository
	Scores     scoredomain.Repository
	Categories categorydomain.Repository
	Detector   abuse.Detector
	Holder     *config.VotingConfigHolder
	Bus        *events.Bus
	Metrics    *metrics.Metrics
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       votedomain.Repository
	scores     scoredomain.Repository
	categories categorydomain.Repository
	detector   abuse.Detector
	holder     *config.VotingConfigHolder
	bus        *events.Bus
	metrics    *metrics.Metrics

	// categoryLocks serializes the read-modify-write sequence per category so
	// concurrent votes never compute ratings from stale reads.
	mu            sync.Mutex
	categoryLocks map[snowflake.ID]*sync.Mutex
}

func New(p Params) votedomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("vote.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		scores:        p.Scores,
		categories:    p.Categories,
		detector:      p.Detector,
		holder:        p.Holder,
		bus:           p.Bus,
		metrics:       p.Metrics,
		categoryLocks: make(map[snowflake.ID]*sync.Mutex),
	}
}

func (s *Service) Record(ctx context.Context, req votedomain.RecordRequest) (*votedomain.Response, error) {
	categoryID, err := votedomain.ParseID(strings.TrimSpace(req.CategoryID))
	if err != nil || categoryID == 0 {
		return nil, votedomain.ErrInvalidCategory
	}

	contestantID, err := votedomain.ParseID(strings.TrimSpace(req.ContestantID))
	if err != nil || contestantID == 0 {
		return nil, votedomain.ErrInvalidContestant
	}

	opponentID, err := votedomain.ParseID(strings.TrimSpace(req.OpponentID))
	if err != nil || opponentID == 0 {
		return nil, votedomain.ErrInvalidOpponent
	}

	if contestantID == opponentID {
		return nil, votedomain.ErrSelfComparison
	}

	winnerID, err := votedomain.ParseID(strings.TrimSpace(req.WinnerID))
	if err != nil || (winnerID != contestantID && winnerID != opponentID) {
		return nil, votedomain.ErrInvalidWinner
	}

	var userID *snowflake.ID
	if trimmed := strings.TrimSpace(req.UserID); trimmed != "" {
		parsed, err := votedomain.ParseID(trimmed)
		if err != nil || parsed == 0 {
			return nil, votedomain.ErrInvalidUser
		}
		userID = &parsed
	}

	if err := s.ensureCategoryExists(ctx, categoryID); err != nil {
		return nil, err
	}

	cfg := s.holder.Get()

	abused := false
	if userID != nil {
		abused = s.detector.IsVotingAbused(ctx, *userID)
		if abused && cfg.RejectAbusiveVotes {
			return nil, votedomain.ErrAbuseDetected
		}
	}

	unlock := s.lockCategory(categoryID)
	defer unlock()

	contestantPrev, err := s.latestScore(ctx, contestantID, categoryID)
	if err != nil {
		return nil, err
	}
	opponentPrev, err := s.latestScore(ctx, opponentID, categoryID)
	if err != nil {
		return nil, err
	}

	comparisons, err := s.countComparisons(ctx, contestantID, categoryID)
	if err != nil {
		return nil, err
	}

	if err := elo.ValidateRating(contestantPrev); err != nil {
		return nil, err
	}
	if err := elo.ValidateRating(opponentPrev); err != nil {
		return nil, err
	}

	kFactor := elo.KFactor(int(comparisons), contestantPrev)
	probability := elo.WinProbability(contestantPrev, opponentPrev)
	opponentProbability := 1 - probability

	contestantActual := elo.Loss
	opponentActual := elo.Win
	if winnerID == contestantID {
		contestantActual = elo.Win
		opponentActual = elo.Loss
	}

	contestantCurrent := elo.NextRating(contestantPrev, probability, contestantActual, kFactor)
	opponentCurrent := elo.NextRating(opponentPrev, opponentProbability, opponentActual, kFactor)

	vote := &votedomain.Vote{
		ID:           s.genID.Generate(),
		CategoryID:   categoryID,
		ContestantID: contestantID,
		OpponentID:   opponentID,
		WinnerID:     winnerID,
		UserID:       userID,

		ContestantPreviousScore:  contestantPrev,
		ContestantCurrentScore:   contestantCurrent,
		ContestantWinProbability: probability,
		OpponentPreviousScore:    opponentPrev,
		OpponentCurrentScore:     opponentCurrent,
		OpponentWinProbability:   opponentProbability,

		KFactor:   kFactor,
		Abused:    abused,
		CreatedAt: s.clock.Now().UTC(),
	}

	if len(req.Metadata) > 0 {
		raw, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, votedomain.ErrInvalidMetadata
		}
		vote.Metadata = datatypes.JSON(raw)
	}

	writeCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()
	if err := s.repo.Insert(writeCtx, s.db, vote); err != nil {
		s.log.Error("vote insert failed",
			zap.Error(err),
			zap.String("category_id", categoryID.String()),
		)
		return nil, err
	}

	s.metrics.RecordVote(ctx, categoryID.String(), contestantCurrent-contestantPrev)

	s.bus.PublishRatingChanged(ctx, events.RatingChanged{
		CategoryID:      categoryID.String(),
		ContestantID:    contestantID.String(),
		ContestantScore: contestantCurrent,
		OpponentID:      opponentID.String(),
		OpponentScore:   opponentCurrent,
	})

	return s.toResponse(vote), nil
}

func (s *Service) ListByCategory(ctx context.Context, req votedomain.ListRequest) ([]votedomain.Response, *pagination.PageInfo, error) {
	categoryID, err := votedomain.ParseID(strings.TrimSpace(req.CategoryID))
	if err != nil || categoryID == 0 {
		return nil, nil, votedomain.ErrInvalidCategory
	}

	var itemID snowflake.ID
	if trimmed := strings.TrimSpace(req.ItemID); trimmed != "" {
		itemID, err = votedomain.ParseID(trimmed)
		if err != nil || itemID == 0 {
			return nil, nil, votedomain.ErrInvalidContestant
		}
	}

	limit := req.Pagination.PageSize
	if limit <= 0 {
		limit = 20
	}

	var afterID snowflake.ID
	if req.Pagination.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.Pagination.PageToken)
		if err != nil {
			return nil, nil, err
		}
		if cursor.ID != "" {
			afterID, err = votedomain.ParseID(cursor.ID)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	votes, err := s.repo.ListByCategory(ctx, s.db, categoryID, itemID, afterID, limit+1)
	if err != nil {
		return nil, nil, err
	}

	votes, pageInfo := pagination.BuildCursorPageInfo(votes, limit, func(v votedomain.Vote) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: v.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	resp := make([]votedomain.Response, 0, len(votes))
	for i := range votes {
		resp = append(resp, *s.toResponse(&votes[i]))
	}
	return resp, pageInfo, nil
}

func (s *Service) Count(ctx context.Context, categoryID string) (int64, error) {
	trimmed := strings.TrimSpace(categoryID)
	if trimmed == "" {
		return s.repo.Count(ctx, s.db)
	}

	parsed, err := votedomain.ParseID(trimmed)
	if err != nil || parsed == 0 {
		return 0, votedomain.ErrInvalidCategory
	}
	return s.repo.CountByCategory(ctx, s.db, parsed)
}

func (s *Service) Stats(ctx context.Context, days int) ([]votedomain.DailyCount, error) {
	if days <= 0 {
		days = 30
	}
	since := s.clock.Now().UTC().AddDate(0, 0, -days)
	return s.repo.StatsDaily(ctx, s.db, since)
}

func (s *Service) PurgeAfter(ctx context.Context, cutoff time.Time) (int64, error) {
	if cutoff.IsZero() {
		return 0, votedomain.ErrInvalidCutoff
	}

	deleted, err := s.repo.DeleteAfter(ctx, s.db, cutoff)
	if err != nil {
		return 0, err
	}

	s.log.Info("purged vote ledger",
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", deleted),
	)
	return deleted, nil
}

// latestScore defaults to the category entry score when the item has no
// history yet.
func (s *Service) ensureCategoryExists(ctx context.Context, categoryID snowflake.ID) error {
	readCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	category, err := s.categories.FindByID(readCtx, s.db, categoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return categorydomain.ErrNotFound
	}
	return nil
}

func (s *Service) latestScore(ctx context.Context, itemID, categoryID snowflake.ID) (float64, error) {
	readCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	row, err := s.scores.Latest(readCtx, s.db, itemID, categoryID)
	if err != nil {
		return 0, err
	}
	if row == nil {
		return scoredomain.DefaultScore, nil
	}
	return row.Score, nil
}

func (s *Service) countComparisons(ctx context.Context, itemID, categoryID snowflake.ID) (int64, error) {
	readCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()
	return s.repo.CountParticipant(readCtx, s.db, itemID, categoryID)
}

func (s *Service) lockCategory(categoryID snowflake.ID) func() {
	s.mu.Lock()
	lock, ok := s.categoryLocks[categoryID]
	if !ok {
		lock = &sync.Mutex{}
		s.categoryLocks[categoryID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (s *Service) toResponse(v *votedomain.Vote) *votedomain.Response {
	resp := &votedomain.Response{
		ID:           v.ID.String(),
		CategoryID:   v.CategoryID.String(),
		ContestantID: v.ContestantID.String(),
		OpponentID:   v.OpponentID.String(),
		WinnerID:     v.WinnerID.String(),

		ContestantPreviousScore:  v.ContestantPreviousScore,
		ContestantCurrentScore:   v.ContestantCurrentScore,
		ContestantWinProbability: v.ContestantWinProbability,
		OpponentPreviousScore:    v.OpponentPreviousScore,
		OpponentCurrentScore:     v.OpponentCurrentScore,
		OpponentWinProbability:   v.OpponentWinProbability,

		KFactor:   v.KFactor,
		Abused:    v.Abused,
		CreatedAt: v.CreatedAt,
	}
	if v.UserID != nil {
		resp.UserID = v.UserID.String()
	}
	return resp
}
