// Package memory is an in-memory load.Store.
//
// Transactions are serialised: Begin takes the single writer slot and holds
// it until Commit or Rollback. Each transaction works on a copy of the data
// that replaces the committed state on Commit, so a rolled-back unit leaves
// nothing behind. Unique natural keys mirror the relational schema.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/JonMunkholm/statsetl/internal/load"
	"github.com/JonMunkholm/statsetl/internal/stats"
)

// ErrTxDone is returned when a finished transaction is used.
var ErrTxDone = errors.New("transaction already committed or rolled back")

// TeamPeriodRow is a stored team-period statistics row.
type TeamPeriodRow struct {
	MatchID int64
	TeamID  int64
	Record  stats.TeamPeriodStatisticsRecord
}

// PlayerStatsRow is a stored player statistics row.
type PlayerStatsRow struct {
	MatchID    int64
	PlayerID   int64
	PositionID *int64
	Record     stats.PlayerStatisticsRecord
}

type competition struct {
	ID       int64
	SeasonID int64
	Name     string
}

type match struct {
	ID int64
	load.Match
}

type state struct {
	nextID       int64
	seasons      map[int]int64
	competitions []competition
	teams        []load.Team
	positions    map[string]int64
	players      []load.Player
	matches      []match
	teamPeriods  []TeamPeriodRow
	playerStats  []PlayerStatsRow
}

func (s *state) clone() *state {
	c := *s
	c.seasons = make(map[int]int64, len(s.seasons))
	for k, v := range s.seasons {
		c.seasons[k] = v
	}
	c.positions = make(map[string]int64, len(s.positions))
	for k, v := range s.positions {
		c.positions[k] = v
	}
	c.competitions = append([]competition(nil), s.competitions...)
	c.teams = append([]load.Team(nil), s.teams...)
	c.players = append([]load.Player(nil), s.players...)
	c.matches = append([]match(nil), s.matches...)
	c.teamPeriods = append([]TeamPeriodRow(nil), s.teamPeriods...)
	c.playerStats = append([]PlayerStatsRow(nil), s.playerStats...)
	return &c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Store is an in-memory load.Store.
type Store struct {
	writer chan struct{}

	mu        sync.RWMutex
	committed *state
	failures  map[string]error
}

// New creates a store with the seeded positions.
func New() *Store {
	st := &state{
		seasons:   make(map[int]int64),
		positions: make(map[string]int64),
	}
	for _, code := range stats.PositionCodes {
		st.positions[code] = st.id()
	}
	return &Store{
		writer:    make(chan struct{}, 1),
		committed: st,
		failures:  make(map[string]error),
	}
}

// FailNext makes the next call of the named Tx method return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	s.failures[op] = err
	s.mu.Unlock()
}

func (s *Store) takeFailure(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

// Begin waits for the writer slot and starts a transaction.
func (s *Store) Begin(ctx context.Context) (load.Tx, error) {
	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := s.takeFailure("Begin"); err != nil {
		<-s.writer
		return nil, err
	}

	s.mu.RLock()
	work := s.committed.clone()
	s.mu.RUnlock()

	return &tx{store: s, st: work}, nil
}

// Counts is the number of rows in each table.
type Counts struct {
	Seasons      int
	Competitions int
	Teams        int
	Positions    int
	Players      int
	Matches      int
	TeamPeriods  int
	PlayerStats  int
}

// Total returns the number of rows across all tables except positions.
func (c Counts) Total() int {
	return c.Seasons + c.Competitions + c.Teams + c.Players + c.Matches + c.TeamPeriods + c.PlayerStats
}

// Counts returns committed row counts.
func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.committed
	return Counts{
		Seasons:      len(st.seasons),
		Competitions: len(st.competitions),
		Teams:        len(st.teams),
		Positions:    len(st.positions),
		Players:      len(st.players),
		Matches:      len(st.matches),
		TeamPeriods:  len(st.teamPeriods),
		PlayerStats:  len(st.playerStats),
	}
}

// Players returns the committed players.
func (s *Store) Players() []load.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]load.Player(nil), s.committed.players...)
}

// Teams returns the committed teams.
func (s *Store) Teams() []load.Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]load.Team(nil), s.committed.teams...)
}

// MatchNumbers returns the committed match numbers in insertion order.
func (s *Store) MatchNumbers() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, 0, len(s.committed.matches))
	for _, m := range s.committed.matches {
		out = append(out, m.Number)
	}
	return out
}

// PlayerStats returns the committed player statistics rows.
func (s *Store) PlayerStats() []PlayerStatsRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PlayerStatsRow(nil), s.committed.playerStats...)
}

type tx struct {
	store *Store
	st    *state
	done  bool
}

func (t *tx) check(op string) error {
	if t.done {
		return ErrTxDone
	}
	return t.store.takeFailure(op)
}

func sameKey(a, b string) bool {
	return strings.EqualFold(stats.NormalizeName(a), stats.NormalizeName(b))
}

func (t *tx) FindSeason(_ context.Context, year int) (int64, bool, error) {
	if err := t.check("FindSeason"); err != nil {
		return 0, false, err
	}
	id, ok := t.st.seasons[year]
	return id, ok, nil
}

func (t *tx) CreateSeason(_ context.Context, year int) (int64, bool, error) {
	if err := t.check("CreateSeason"); err != nil {
		return 0, false, err
	}
	if id, ok := t.st.seasons[year]; ok {
		return id, false, nil
	}
	id := t.st.id()
	t.st.seasons[year] = id
	return id, true, nil
}

func (t *tx) FindCompetition(_ context.Context, seasonID int64, name string) (int64, bool, error) {
	if err := t.check("FindCompetition"); err != nil {
		return 0, false, err
	}
	for _, c := range t.st.competitions {
		if c.SeasonID == seasonID && sameKey(c.Name, name) {
			return c.ID, true, nil
		}
	}
	return 0, false, nil
}

func (t *tx) CreateCompetition(ctx context.Context, seasonID int64, name string) (int64, bool, error) {
	if err := t.check("CreateCompetition"); err != nil {
		return 0, false, err
	}
	if id, ok, _ := t.FindCompetition(ctx, seasonID, name); ok {
		return id, false, nil
	}
	id := t.st.id()
	t.st.competitions = append(t.st.competitions, competition{ID: id, SeasonID: seasonID, Name: name})
	return id, true, nil
}

func (t *tx) FindTeam(_ context.Context, name string) (load.Team, bool, error) {
	if err := t.check("FindTeam"); err != nil {
		return load.Team{}, false, err
	}
	for _, team := range t.st.teams {
		if sameKey(team.Name, name) {
			return team, true, nil
		}
	}
	return load.Team{}, false, nil
}

func (t *tx) CreateTeam(ctx context.Context, name string, isHome bool) (int64, bool, error) {
	if err := t.check("CreateTeam"); err != nil {
		return 0, false, err
	}
	if team, ok, _ := t.FindTeam(ctx, name); ok {
		return team.ID, false, nil
	}
	id := t.st.id()
	t.st.teams = append(t.st.teams, load.Team{ID: id, Name: name, IsHome: isHome})
	return id, true, nil
}

func (t *tx) FindPosition(_ context.Context, code string) (int64, bool, error) {
	if err := t.check("FindPosition"); err != nil {
		return 0, false, err
	}
	id, ok := t.st.positions[strings.ToUpper(code)]
	return id, ok, nil
}

func (t *tx) FindPlayer(_ context.Context, fullName string) (load.Player, bool, error) {
	if err := t.check("FindPlayer"); err != nil {
		return load.Player{}, false, err
	}
	for _, p := range t.st.players {
		if sameKey(p.FullName, fullName) {
			return p, true, nil
		}
	}
	return load.Player{}, false, nil
}

func (t *tx) CreatePlayer(ctx context.Context, p load.Player) (int64, bool, error) {
	if err := t.check("CreatePlayer"); err != nil {
		return 0, false, err
	}
	if existing, ok, _ := t.FindPlayer(ctx, p.FullName); ok {
		return existing.ID, false, nil
	}
	p.ID = t.st.id()
	t.st.players = append(t.st.players, p)
	return p.ID, true, nil
}

func (t *tx) UpdatePlayer(_ context.Context, p load.Player) error {
	if err := t.check("UpdatePlayer"); err != nil {
		return err
	}
	for i := range t.st.players {
		if t.st.players[i].ID == p.ID {
			t.st.players[i].Jersey = p.Jersey
			t.st.players[i].PositionID = p.PositionID
			return nil
		}
	}
	return fmt.Errorf("player %d not found", p.ID)
}

func (t *tx) MatchExists(_ context.Context, competitionID int64, number int) (bool, error) {
	if err := t.check("MatchExists"); err != nil {
		return false, err
	}
	for _, m := range t.st.matches {
		if m.CompetitionID == competitionID && m.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) InsertMatch(ctx context.Context, m load.Match) (int64, error) {
	if err := t.check("InsertMatch"); err != nil {
		return 0, err
	}
	if exists, _ := t.MatchExists(ctx, m.CompetitionID, m.Number); exists {
		return 0, load.ErrMatchExists
	}
	id := t.st.id()
	t.st.matches = append(t.st.matches, match{ID: id, Match: m})
	return id, nil
}

func (t *tx) InsertTeamPeriod(_ context.Context, matchID, teamID int64, rec stats.TeamPeriodStatisticsRecord) error {
	if err := t.check("InsertTeamPeriod"); err != nil {
		return err
	}
	for _, row := range t.st.teamPeriods {
		if row.MatchID == matchID && row.TeamID == teamID && row.Record.Period == rec.Period {
			return fmt.Errorf("duplicate team period %s for team %d", rec.Period, teamID)
		}
	}
	t.st.teamPeriods = append(t.st.teamPeriods, TeamPeriodRow{MatchID: matchID, TeamID: teamID, Record: rec})
	return nil
}

func (t *tx) InsertPlayerStatistics(_ context.Context, matchID, playerID int64, positionID *int64, rec stats.PlayerStatisticsRecord) error {
	if err := t.check("InsertPlayerStatistics"); err != nil {
		return err
	}
	for _, row := range t.st.playerStats {
		if row.MatchID == matchID && row.PlayerID == playerID {
			return fmt.Errorf("duplicate statistics for player %d", playerID)
		}
	}
	t.st.playerStats = append(t.st.playerStats, PlayerStatsRow{
		MatchID: matchID, PlayerID: playerID, PositionID: positionID, Record: rec,
	})
	return nil
}

func (t *tx) Commit(_ context.Context) error {
	if t.done {
		return ErrTxDone
	}
	if err := t.store.takeFailure("Commit"); err != nil {
		t.finish()
		return err
	}
	t.store.mu.Lock()
	t.store.committed = t.st
	t.store.mu.Unlock()
	t.finish()
	return nil
}

func (t *tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *tx) finish() {
	t.done = true
	t.st = nil
	<-t.store.writer
}
