// Package abuse flags voters whose same-day history shows a suspicious
// streak: the same comparison role winning many times in a row. Detection is
// advisory; the vote service decides what to do with a flag.
package abuse

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/versus/internal/clock"
	"github.com/smallbiznis/versus/internal/config"
	"github.com/smallbiznis/versus/internal/observability/metrics"
	votedomain "github.com/smallbiznis/versus/internal/vote/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Detector reports whether a voter's recent activity looks abusive.
type Detector interface {
	// IsVotingAbused inspects the user's votes from the current calendar day.
	// Storage failures fail open: a voter is never flagged because the ledger
	// was unreachable.
	IsVotingAbused(ctx context.Context, userID snowflake.ID) bool
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Votes   votedomain.Repository
	Holder  *config.VotingConfigHolder
	Metrics *metrics.Metrics
}

type detector struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	votes   votedomain.Repository
	holder  *config.VotingConfigHolder
	metrics *metrics.Metrics
}

func New(p Params) Detector {
	return &detector{
		db:      p.DB,
		log:     p.Log.Named("abuse.detector"),
		clock:   p.Clock,
		votes:   p.Votes,
		holder:  p.Holder,
		metrics: p.Metrics,
	}
}

func (d *detector) IsVotingAbused(ctx context.Context, userID snowflake.ID) bool {
	if userID == 0 {
		return false
	}

	cfg := d.holder.Get()

	now := d.clock.Now()
	dayStart := startOfDay(now)
	dayEnd := dayStart.AddDate(0, 0, 1)

	votes, err := d.votes.ListByUserBetween(ctx, d.db, userID, dayStart, dayEnd)
	if err != nil {
		d.log.Warn("abuse check skipped, ledger unavailable",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return false
	}

	if len(votes) < cfg.AbuseMinVotes {
		return false
	}

	// Votes arrive newest-first; the streak scan walks the day in the order
	// it happened.
	contestantWinStreak := 0
	opponentWinStreak := 0
	for i := len(votes) - 1; i >= 0; i-- {
		if votes[i].Winner() == votedomain.WinnerContestant {
			contestantWinStreak++
			opponentWinStreak = 0
		} else {
			opponentWinStreak++
			contestantWinStreak = 0
		}

		if contestantWinStreak >= cfg.AbuseStreakThreshold || opponentWinStreak >= cfg.AbuseStreakThreshold {
			reason := "contestant_streak"
			if opponentWinStreak >= cfg.AbuseStreakThreshold {
				reason = "opponent_streak"
			}
			d.log.Info("voter flagged for role streak",
				zap.String("user_id", userID.String()),
				zap.String("reason", reason),
				zap.Int("votes_today", len(votes)),
			)
			d.metrics.RecordAbuseFlagged(ctx, reason)
			return true
		}
	}

	return false
}

// startOfDay truncates to midnight in the timestamp's own location, so the
// window tracks the server's local calendar day.
func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
