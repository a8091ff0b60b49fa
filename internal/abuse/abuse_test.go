package abuse

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/versus/internal/clock"
	"github.com/smallbiznis/versus/internal/config"
	votedomain "github.com/smallbiznis/versus/internal/vote/domain"
	voterepository "github.com/smallbiznis/versus/internal/vote/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server-local timezone used across these tests. The detector's day window
// follows the clock's location, not UTC.
var jakarta = time.FixedZone("WIB", 7*3600)

type abuseFixture struct {
	detector Detector
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	userID   snowflake.ID
}

func setupDetector(t *testing.T, cfg config.VotingConfig) *abuseFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&votedomain.Vote{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, 6, 10, 15, 0, 0, 0, jakarta))

	detector := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		Clock:   fc,
		Votes:   voterepository.Provide(),
		Holder:  config.NewStaticVotingConfigHolder(cfg),
		Metrics: nil,
	})

	return &abuseFixture{
		detector: detector,
		db:       db,
		node:     node,
		clock:    fc,
		userID:   node.Generate(),
	}
}

// insertVote writes one ledger row for the fixture user. contestantWon picks
// which side of the comparison the vote favored.
func (f *abuseFixture) insertVote(t *testing.T, contestantWon bool, at time.Time) {
	t.Helper()

	contestantID := f.node.Generate()
	opponentID := f.node.Generate()
	winnerID := contestantID
	if !contestantWon {
		winnerID = opponentID
	}

	userID := f.userID
	require.NoError(t, voterepository.Provide().Insert(context.Background(), f.db, &votedomain.Vote{
		ID:           f.node.Generate(),
		CategoryID:   f.node.Generate(),
		ContestantID: contestantID,
		OpponentID:   opponentID,
		WinnerID:     winnerID,
		UserID:       &userID,
		KFactor:      40,
		CreatedAt:    at,
	}))
}

func TestContestantStreakFlagged(t *testing.T) {
	f := setupDetector(t, config.DefaultVotingConfig())

	now := f.clock.Now()
	for i := 0; i < 5; i++ {
		f.insertVote(t, true, now.Add(time.Duration(i)*time.Minute))
	}

	assert.True(t, f.detector.IsVotingAbused(context.Background(), f.userID))
}

func TestOpponentStreakFlagged(t *testing.T) {
	f := setupDetector(t, config.DefaultVotingConfig())

	now := f.clock.Now()
	for i := 0; i < 5; i++ {
		f.insertVote(t, false, now.Add(time.Duration(i)*time.Minute))
	}

	assert.True(t, f.detector.IsVotingAbused(context.Background(), f.userID))
}

func TestAlternatingRolesNotFlagged(t *testing.T) {
	f := setupDetector(t, config.DefaultVotingConfig())

	now := f.clock.Now()
	for i := 0; i < 8; i++ {
		f.insertVote(t, i%2 == 0, now.Add(time.Duration(i)*time.Minute))
	}

	assert.False(t, f.detector.IsVotingAbused(context.Background(), f.userID))
}

func TestStreakBrokenMidDayNotFlagged(t *testing.T) {
	f := setupDetector(t, config.DefaultVotingConfig())

	// Four contestant wins, one opponent win, four more contestant wins.
	// Neither run reaches the threshold of five.
	now := f.clock.Now()
	for i, contestantWon := range []bool{true, true, true, true, false, true, true, true, true} {
		f.insertVote(t, contestantWon, now.Add(time.Duration(i)*time.Minute))
	}

	assert.False(t, f.detector.IsVotingAbused(context.Background(), f.userID))
}

func TestTooFewVotesNotFlagged(t *testing.T) {
	f := setupDetector(t, config.DefaultVotingConfig())

	now := f.clock.Now()
	for i := 0; i < 4; i++ {
		f.insertVote(t, true, now.Add(time.Duration(i)*time.Minute))
	}

	assert.False(t, f.detector.IsVotingAbused(context.Background(), f.userID))
}

func TestYesterdayVotesExcluded(t *testing.T) {
	f := setupDetector(t, config.DefaultVotingConfig())

	// Four wins shortly before local midnight plus one today: only the one
	// from today falls inside the window.
	now := f.clock.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, jakarta)
	for i := 0; i < 4; i++ {
		f.insertVote(t, true, dayStart.Add(-time.Duration(i+1)*time.Minute))
	}
	f.insertVote(t, true, now)

	assert.False(t, f.detector.IsVotingAbused(context.Background(), f.userID))
}

func TestUnknownUserNotFlagged(t *testing.T) {
	f := setupDetector(t, config.DefaultVotingConfig())
	assert.False(t, f.detector.IsVotingAbused(context.Background(), 0))
}

func TestDetectorFailsOpenOnStorageError(t *testing.T) {
	f := setupDetector(t, config.DefaultVotingConfig())

	now := f.clock.Now()
	for i := 0; i < 5; i++ {
		f.insertVote(t, true, now.Add(time.Duration(i)*time.Minute))
	}

	require.NoError(t, f.db.Exec(`DROP TABLE votes`).Error)

	assert.False(t, f.detector.IsVotingAbused(context.Background(), f.userID))
}
