package load

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/statsetl/internal/logging"
	"github.com/JonMunkholm/statsetl/internal/stats"
)

// Stage is a step of the per-unit load state machine.
type Stage string

const (
	StageStart             Stage = "start"
	StageResolveReferences Stage = "resolve_references"
	StageCheckDuplicate    Stage = "check_duplicate_match"
	StageInsertMatch       Stage = "insert_match"
	StageInsertPeriods     Stage = "insert_period_statistics"
	StageInsertPlayers     Stage = "insert_player_statistics"
	StageCommit            Stage = "commit"
	StageCommitted         Stage = "committed"
	StageRolledBack        Stage = "rolled_back"
)

// DefaultUnitTimeout bounds a single unit transaction.
const DefaultUnitTimeout = 30 * time.Second

// LoadResult is the outcome of loading one unit.
type LoadResult struct {
	Success     bool
	RowsCreated int
	Stage       Stage // StageCommitted or StageRolledBack
	FailedStage Stage // stage that failed; empty on success
	Err         error
	MatchNumber int
	Sheet       string
	Duration    time.Duration
}

// Observer is notified after every unit, committed or not.
type Observer interface {
	UnitLoaded(res LoadResult)
}

// Loader writes match units atomically.
type Loader struct {
	store       Store
	unitTimeout time.Duration
	logger      *slog.Logger
	observer    Observer
}

// Option configures a Loader.
type Option func(*Loader)

// WithUnitTimeout sets the per-unit transaction timeout.
func WithUnitTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.unitTimeout = d
		}
	}
}

// WithLogger sets the logger used for unit outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithObserver registers an observer for unit outcomes.
func WithObserver(o Observer) Option {
	return func(l *Loader) { l.observer = o }
}

// NewLoader creates a loader over store.
func NewLoader(store Store, opts ...Option) *Loader {
	l := &Loader{
		store:       store,
		unitTimeout: DefaultUnitTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadUnit writes unit in one transaction.
//
// The transaction runs on a context detached from ctx's cancellation and
// bounded by the unit timeout, so cancelling a run never aborts a unit
// midway. A timeout fails the unit like any other error.
func (l *Loader) LoadUnit(ctx context.Context, unit stats.MatchUnit) LoadResult {
	start := time.Now()
	res := l.loadUnit(ctx, unit)
	res.Duration = time.Since(start)

	attrs := []any{
		"sheet", res.Sheet,
		"match_number", res.MatchNumber,
		"stage", res.Stage,
		"rows", res.RowsCreated,
		"duration_ms", res.Duration.Milliseconds(),
	}
	logger := logging.Enrich(ctx, l.logger)
	if res.Success {
		logger.Info("unit committed", attrs...)
	} else {
		logger.Warn("unit rolled back", append(attrs, "failed_stage", res.FailedStage, "error", res.Err)...)
	}

	if l.observer != nil {
		l.observer.UnitLoaded(res)
	}
	return res
}

func (l *Loader) loadUnit(parent context.Context, unit stats.MatchUnit) LoadResult {
	res := LoadResult{
		Stage:       StageStart,
		MatchNumber: unit.Match.Number,
		Sheet:       unit.Match.SheetName,
	}

	fail := func(stage Stage, err error) LoadResult {
		res.Success = false
		res.RowsCreated = 0
		res.FailedStage = stage
		res.Stage = StageRolledBack
		res.Err = &StageError{Stage: stage, Err: err}
		return res
	}

	if len(unit.Periods) != stats.TeamRowsPerMatch {
		return fail(StageStart, fmt.Errorf("%w: %d team-period rows, want %d",
			ErrIncompleteUnit, len(unit.Periods), stats.TeamRowsPerMatch))
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), l.unitTimeout)
	defer cancel()

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return fail(StageStart, fmt.Errorf("begin transaction: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			// Rollback uses a fresh context so a timed-out unit still releases its transaction.
			rbCtx, rbCancel := context.WithTimeout(context.WithoutCancel(parent), 5*time.Second)
			defer rbCancel()
			if rbErr := tx.Rollback(rbCtx); rbErr != nil {
				l.logger.Error("rollback failed", "sheet", res.Sheet, "error", rbErr)
			}
		}
	}()

	// resolve_references
	res.Stage = StageResolveReferences
	refs, err := l.resolve(ctx, NewResolver(tx), unit)
	if err != nil {
		return fail(StageResolveReferences, err)
	}
	rows := refs.created

	// check_duplicate_match
	res.Stage = StageCheckDuplicate
	exists, err := tx.MatchExists(ctx, refs.competitionID, unit.Match.Number)
	if err != nil {
		return fail(StageCheckDuplicate, err)
	}
	if exists {
		return fail(StageCheckDuplicate, fmt.Errorf("%w: %s %d match %d",
			ErrMatchExists, unit.Match.Competition, unit.Match.Season, unit.Match.Number))
	}

	// insert_match
	res.Stage = StageInsertMatch
	matchID, err := tx.InsertMatch(ctx, Match{
		CompetitionID:  refs.competitionID,
		HomeTeamID:     refs.homeTeamID,
		OpponentTeamID: refs.opponentTeamID,
		Number:         unit.Match.Number,
		Date:           unit.Match.Date,
		HomeScore:      unit.Match.HomeScore,
		AwayScore:      unit.Match.AwayScore,
		SheetName:      unit.Match.SheetName,
	})
	if err != nil {
		return fail(StageInsertMatch, err)
	}
	rows++

	// insert_period_statistics
	res.Stage = StageInsertPeriods
	for _, period := range unit.Periods {
		teamID := refs.opponentTeamID
		if period.IsHome {
			teamID = refs.homeTeamID
		}
		if err := tx.InsertTeamPeriod(ctx, matchID, teamID, period); err != nil {
			return fail(StageInsertPeriods, fmt.Errorf("%s %s: %w", period.Team, period.Period, err))
		}
		rows++
	}

	// insert_player_statistics
	res.Stage = StageInsertPlayers
	for i, player := range unit.Players {
		if err := tx.InsertPlayerStatistics(ctx, matchID, refs.playerIDs[i], refs.positionIDs[i], player); err != nil {
			return fail(StageInsertPlayers, fmt.Errorf("#%d %s: %w", player.Jersey, player.FullName, err))
		}
		rows++
	}

	// commit
	res.Stage = StageCommit
	if err := tx.Commit(ctx); err != nil {
		return fail(StageCommit, err)
	}
	committed = true

	res.Success = true
	res.Stage = StageCommitted
	res.RowsCreated = rows
	return res
}

// unitRefs holds the surrogate ids resolved for a unit.
type unitRefs struct {
	competitionID  int64
	homeTeamID     int64
	opponentTeamID int64
	playerIDs      []int64
	positionIDs    []*int64
	created        int
}

func (l *Loader) resolve(ctx context.Context, r *Resolver, unit stats.MatchUnit) (unitRefs, error) {
	var refs unitRefs
	m := unit.Match

	seasonID, err := r.Season(ctx, m.Season)
	if err != nil {
		return refs, err
	}
	if refs.competitionID, err = r.Competition(ctx, seasonID, m.Competition); err != nil {
		return refs, err
	}
	if refs.homeTeamID, err = r.Team(ctx, m.HomeTeam, true); err != nil {
		return refs, err
	}
	if refs.opponentTeamID, err = r.Team(ctx, m.Opponent, false); err != nil {
		return refs, err
	}
	if refs.homeTeamID == refs.opponentTeamID {
		return refs, errors.New("home team and opponent resolve to the same team")
	}

	refs.playerIDs = make([]int64, len(unit.Players))
	refs.positionIDs = make([]*int64, len(unit.Players))
	for i, p := range unit.Players {
		if p.Position != "" {
			id, err := r.Position(ctx, p.Position)
			if err != nil {
				return refs, fmt.Errorf("#%d %s: %w", p.Jersey, p.FullName, err)
			}
			refs.positionIDs[i] = &id
		}
		if refs.playerIDs[i], err = r.Player(ctx, p.FullName, p.Jersey, refs.positionIDs[i]); err != nil {
			return refs, err
		}
	}

	refs.created = r.Created()
	return refs, nil
}
