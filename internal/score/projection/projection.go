// Package projection appends score history rows in response to rating
// changes. Keeping the write out of the vote path means the ledger stays the
// single source of truth and the score table is a derived view of it.
package projection

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/versus/internal/clock"
	"github.com/smallbiznis/versus/internal/events"
	scoredomain "github.com/smallbiznis/versus/internal/score/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  scoredomain.Repository
	Bus   *events.Bus
}

// Projector writes one score row per participant for every rating change.
type Projector struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  scoredomain.Repository
}

func New(p Params) *Projector {
	proj := &Projector{
		db:    p.DB,
		log:   p.Log.Named("score.projection"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
	p.Bus.Subscribe(proj)
	return proj
}

func (p *Projector) OnRatingChanged(ctx context.Context, event events.RatingChanged) error {
	categoryID, err := scoredomain.ParseID(event.CategoryID)
	if err != nil {
		return scoredomain.ErrInvalidCategory
	}

	now := p.clock.Now().UTC()
	participants := []struct {
		itemID string
		score  float64
	}{
		{event.ContestantID, event.ContestantScore},
		{event.OpponentID, event.OpponentScore},
	}

	for _, participant := range participants {
		itemID, err := scoredomain.ParseID(participant.itemID)
		if err != nil {
			return scoredomain.ErrInvalidItem
		}

		row := &scoredomain.Score{
			ID:         p.genID.Generate(),
			ItemID:     itemID,
			CategoryID: categoryID,
			Score:      participant.score,
			CreatedAt:  now,
		}
		if err := p.repo.Insert(ctx, p.db, row); err != nil {
			p.log.Error("failed to append score row",
				zap.Error(err),
				zap.String("item_id", participant.itemID),
				zap.String("category_id", event.CategoryID),
			)
			return err
		}
	}

	return nil
}
