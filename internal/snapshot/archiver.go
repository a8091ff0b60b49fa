// Package snapshot materializes per-category leaderboards into dated rows.
// Captures accumulate: running the archiver twice in one day writes a second
// set of rows for that day rather than replacing the first.
package snapshot

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	categorydomain "github.com/smallbiznis/versus/internal/category/domain"
	"github.com/smallbiznis/versus/internal/clock"
	"github.com/smallbiznis/versus/internal/config"
	"github.com/smallbiznis/versus/internal/observability/metrics"
	scoredomain "github.com/smallbiznis/versus/internal/score/domain"
	snapshotdomain "github.com/smallbiznis/versus/internal/snapshot/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Categories categorydomain.Repository
	Scores     scoredomain.Repository
	Snapshots  snapshotdomain.Repository
	Holder     *config.VotingConfigHolder
	Metrics    *metrics.Metrics
	Config     Config `optional:"true"`
}

// Archiver walks every active category and freezes its current ranking.
type Archiver struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	categories categorydomain.Repository
	scores     scoredomain.Repository
	snapshots  snapshotdomain.Repository
	holder     *config.VotingConfigHolder
	metrics    *metrics.Metrics
	cfg        Config
}

func NewArchiver(p Params) *Archiver {
	return &Archiver{
		db:         p.DB,
		log:        p.Log.Named("snapshot.archiver"),
		genID:      p.GenID,
		clock:      p.Clock,
		categories: p.Categories,
		scores:     p.Scores,
		snapshots:  p.Snapshots,
		holder:     p.Holder,
		metrics:    p.Metrics,
		cfg:        p.Config.withDefaults(),
	}
}

// CaptureAll snapshots every active category and returns the number of rows
// written. A failing category is logged and skipped so one bad category never
// stalls the rest of the run.
func (a *Archiver) CaptureAll(parentCtx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(parentCtx, a.cfg.RunTimeout)
	defer cancel()

	categories, err := a.categories.List(ctx, a.db, true)
	if err != nil {
		return 0, err
	}

	total := 0
	for i := range categories {
		categoryCtx, cancel := context.WithTimeout(ctx, a.cfg.CategoryTimeout)
		written, err := a.CaptureCategory(categoryCtx, categories[i].ID)
		cancel()

		if err != nil {
			a.log.Warn("snapshot capture failed for category",
				zap.Error(err),
				zap.String("category_id", categories[i].ID.String()),
			)
			continue
		}
		total += written
	}

	return total, nil
}

// CaptureCategory pages through the category's current ranking and writes one
// dated row per item. Ranking positions are 1-based across pages.
func (a *Archiver) CaptureCategory(ctx context.Context, categoryID snowflake.ID) (int, error) {
	pageSize := a.holder.Get().SnapshotPageSize
	date := startOfDayUTC(a.clock.Now())

	written := 0
	offset := 0
	for {
		page, err := a.scores.Rankings(ctx, a.db, categoryID, pageSize, offset)
		if err != nil {
			return written, err
		}
		if len(page) == 0 {
			break
		}

		batch := make([]snapshotdomain.Snapshot, 0, len(page))
		for i := range page {
			batch = append(batch, snapshotdomain.Snapshot{
				ID:         a.genID.Generate(),
				ItemID:     page[i].ItemID,
				CategoryID: categoryID,
				Score:      page[i].Score,
				Ranking:    offset + i + 1,
				Date:       date,
			})
		}

		if err := a.snapshots.InsertBatch(ctx, a.db, batch); err != nil {
			return written, err
		}

		written += len(batch)
		offset += len(page)

		if len(page) < pageSize {
			break
		}
	}

	a.metrics.RecordSnapshotRows(ctx, categoryID.String(), int64(written))
	return written, nil
}

// Cleanup deletes snapshot rows older than the configured retention window
// and returns the number removed.
func (a *Archiver) Cleanup(parentCtx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(parentCtx, a.cfg.RunTimeout)
	defer cancel()

	retention := a.holder.Get().SnapshotRetentionDays
	cutoff := startOfDayUTC(a.clock.Now()).AddDate(0, 0, -retention)

	deleted, err := a.snapshots.DeleteBefore(ctx, a.db, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		a.log.Info("purged expired snapshots",
			zap.Time("cutoff", cutoff),
			zap.Int64("deleted", deleted),
		)
	}
	a.metrics.RecordSnapshotsPurged(ctx, deleted)
	return deleted, nil
}

func startOfDayUTC(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
