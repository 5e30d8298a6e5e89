package load_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/statsetl/internal/load"
	"github.com/JonMunkholm/statsetl/internal/stats/statstest"
	"github.com/JonMunkholm/statsetl/internal/store/memory"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLoader(store load.Store, opts ...load.Option) *load.Loader {
	return load.NewLoader(store, append([]load.Option{load.WithLogger(quietLogger())}, opts...)...)
}

func TestLoadUnit_Commits(t *testing.T) {
	store := memory.New()
	unit := statstest.Unit(9, "Championship", "Slaughtmanus", 5)

	res := newLoader(store).LoadUnit(context.Background(), unit)

	require.True(t, res.Success, "error: %v", res.Err)
	assert.Equal(t, load.StageCommitted, res.Stage)
	assert.Empty(t, res.FailedStage)
	assert.Equal(t, 9, res.MatchNumber)
	// season + competition + 2 teams + 5 players + match + 6 periods + 5 player rows
	assert.Equal(t, 21, res.RowsCreated)

	c := store.Counts()
	assert.Equal(t, 1, c.Seasons)
	assert.Equal(t, 1, c.Competitions)
	assert.Equal(t, 2, c.Teams)
	assert.Equal(t, 5, c.Players)
	assert.Equal(t, 1, c.Matches)
	assert.Equal(t, 6, c.TeamPeriods)
	assert.Equal(t, 5, c.PlayerStats)
	assert.Equal(t, res.RowsCreated, c.Total())
}

func TestLoadUnit_DuplicateMatch(t *testing.T) {
	store := memory.New()
	loader := newLoader(store)
	unit := statstest.Unit(9, "Championship", "Slaughtmanus", 5)

	first := loader.LoadUnit(context.Background(), unit)
	require.True(t, first.Success)
	before := store.Counts()

	second := loader.LoadUnit(context.Background(), unit)

	require.False(t, second.Success)
	assert.ErrorIs(t, second.Err, load.ErrMatchExists)
	assert.Contains(t, second.Err.Error(), "already exists")
	assert.Equal(t, load.StageRolledBack, second.Stage)
	assert.Equal(t, load.StageCheckDuplicate, second.FailedStage)
	assert.Zero(t, second.RowsCreated)
	assert.Equal(t, before, store.Counts())
}

func TestLoadUnit_CompetitionNameCaseInsensitive(t *testing.T) {
	store := memory.New()
	loader := newLoader(store)

	require.True(t, loader.LoadUnit(context.Background(), statstest.Unit(3, "Championship", "Kilrea", 2)).Success)
	res := loader.LoadUnit(context.Background(), statstest.Unit(3, "CHAMPIONSHIP", "Kilrea", 2))

	assert.ErrorIs(t, res.Err, load.ErrMatchExists)
	assert.Equal(t, 1, store.Counts().Competitions)
}

func TestLoadUnit_ReferenceReuse(t *testing.T) {
	store := memory.New()
	loader := newLoader(store)

	a := loader.LoadUnit(context.Background(), statstest.Unit(1, "Championship", "Slaughtmanus", 5))
	b := loader.LoadUnit(context.Background(), statstest.Unit(2, "Championship", "Slaughtmanus", 5))
	require.True(t, a.Success)
	require.True(t, b.Success)

	c := store.Counts()
	assert.Equal(t, 1, c.Seasons)
	assert.Equal(t, 1, c.Competitions)
	assert.Equal(t, 2, c.Teams)
	assert.Equal(t, 5, c.Players)
	assert.Equal(t, 2, c.Matches)
	assert.Equal(t, 12, c.TeamPeriods)
	// second unit creates only its match, periods and player rows
	assert.Equal(t, 1+6+5, b.RowsCreated)
}

func TestLoadUnit_UpdatesPlayerInPlace(t *testing.T) {
	store := memory.New()
	loader := newLoader(store)
	require.True(t, loader.LoadUnit(context.Background(), statstest.Unit(1, "League", "Kilrea", 3)).Success)

	next := statstest.Unit(2, "League", "Kilrea", 3)
	next.Players[2].Jersey = 23
	next.Players[2].Position = "FWD"
	require.True(t, loader.LoadUnit(context.Background(), next).Success)

	players := store.Players()
	require.Len(t, players, 3)
	for _, p := range players {
		if p.FullName == statstest.PlayerName(3) {
			assert.Equal(t, 23, p.Jersey)
			require.NotNil(t, p.PositionID)
		}
	}
}

func TestLoadUnit_RollsBackOnFailure(t *testing.T) {
	for _, op := range []string{"CreateSeason", "InsertMatch", "InsertTeamPeriod", "InsertPlayerStatistics", "Commit"} {
		t.Run(op, func(t *testing.T) {
			store := memory.New()
			store.FailNext(op, errors.New("connection reset"))

			res := newLoader(store).LoadUnit(context.Background(), statstest.Unit(4, "League", "Kilrea", 4))

			require.False(t, res.Success)
			assert.Equal(t, load.StageRolledBack, res.Stage)
			assert.Contains(t, res.Err.Error(), "connection reset")
			assert.Zero(t, store.Counts().Total(), "no partial writes")

			// the writer slot was released
			assert.True(t, newLoader(store).LoadUnit(context.Background(), statstest.Unit(4, "League", "Kilrea", 4)).Success)
		})
	}
}

func TestLoadUnit_FailedStage(t *testing.T) {
	store := memory.New()
	store.FailNext("InsertPlayerStatistics", errors.New("boom"))

	res := newLoader(store).LoadUnit(context.Background(), statstest.Unit(4, "League", "Kilrea", 4))

	var stageErr *load.StageError
	require.ErrorAs(t, res.Err, &stageErr)
	assert.Equal(t, load.StageInsertPlayers, stageErr.Stage)
	assert.Equal(t, load.StageInsertPlayers, res.FailedStage)
}

func TestLoadUnit_UnknownPosition(t *testing.T) {
	store := memory.New()
	unit := statstest.Unit(5, "League", "Kilrea", 3)
	unit.Players[1].Position = "SWP"

	res := newLoader(store).LoadUnit(context.Background(), unit)

	assert.ErrorIs(t, res.Err, load.ErrUnknownPosition)
	assert.Equal(t, load.StageResolveReferences, res.FailedStage)
	assert.Zero(t, store.Counts().Total())
}

func TestLoadUnit_IncompleteUnit(t *testing.T) {
	store := memory.New()
	unit := statstest.Unit(6, "League", "Kilrea", 3)
	unit.Periods = unit.Periods[:4]

	res := newLoader(store).LoadUnit(context.Background(), unit)

	assert.ErrorIs(t, res.Err, load.ErrIncompleteUnit)
	assert.Equal(t, load.StageStart, res.FailedStage)
	assert.Zero(t, store.Counts().Total())
}

func TestLoadUnit_IgnoresCallerCancellation(t *testing.T) {
	store := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newLoader(store).LoadUnit(ctx, statstest.Unit(7, "League", "Kilrea", 3))

	assert.True(t, res.Success, "error: %v", res.Err)
	assert.Equal(t, 1, store.Counts().Matches)
}

// blockingStore never grants a transaction until ctx is done.
type blockingStore struct{}

func (blockingStore) Begin(ctx context.Context) (load.Tx, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestLoadUnit_Timeout(t *testing.T) {
	loader := newLoader(blockingStore{}, load.WithUnitTimeout(20*time.Millisecond))

	res := loader.LoadUnit(context.Background(), statstest.Unit(8, "League", "Kilrea", 3))

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Equal(t, load.StageStart, res.FailedStage)
}

type recordingObserver struct {
	results []load.LoadResult
}

func (o *recordingObserver) UnitLoaded(res load.LoadResult) {
	o.results = append(o.results, res)
}

func TestLoadUnit_NotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	loader := newLoader(memory.New(), load.WithObserver(obs))

	loader.LoadUnit(context.Background(), statstest.Unit(1, "League", "Kilrea", 2))
	loader.LoadUnit(context.Background(), statstest.Unit(1, "League", "Kilrea", 2))

	require.Len(t, obs.results, 2)
	assert.True(t, obs.results[0].Success)
	assert.False(t, obs.results[1].Success)
}
