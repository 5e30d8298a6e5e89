// Package load persists validated match units.
//
// A unit is one sheet's match, its six team-period rows and its player rows.
// Every unit is written inside a single transaction: reference data is
// resolved by natural key (find first, create only when absent), the match
// is checked for duplicates, and all fact rows are inserted before commit.
// Any failure rolls the whole unit back.
//
// The package talks to storage only through the Store and Tx interfaces.
// store/postgres implements them with pgx; store/memory backs tests and dry
// runs.
package load

import (
	"context"
	"time"

	"github.com/JonMunkholm/statsetl/internal/stats"
)

// Store opens unit transactions.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one unit transaction. Create methods insert only when the natural
// key is absent and report whether a row was created; an existing row's id
// is returned otherwise. Rollback after Commit is a no-op.
type Tx interface {
	FindSeason(ctx context.Context, year int) (int64, bool, error)
	CreateSeason(ctx context.Context, year int) (int64, bool, error)

	FindCompetition(ctx context.Context, seasonID int64, name string) (int64, bool, error)
	CreateCompetition(ctx context.Context, seasonID int64, name string) (int64, bool, error)

	FindTeam(ctx context.Context, name string) (Team, bool, error)
	CreateTeam(ctx context.Context, name string, isHome bool) (int64, bool, error)

	FindPosition(ctx context.Context, code string) (int64, bool, error)

	FindPlayer(ctx context.Context, fullName string) (Player, bool, error)
	CreatePlayer(ctx context.Context, p Player) (int64, bool, error)
	UpdatePlayer(ctx context.Context, p Player) error

	MatchExists(ctx context.Context, competitionID int64, number int) (bool, error)
	InsertMatch(ctx context.Context, m Match) (int64, error)
	InsertTeamPeriod(ctx context.Context, matchID, teamID int64, rec stats.TeamPeriodStatisticsRecord) error
	InsertPlayerStatistics(ctx context.Context, matchID, playerID int64, positionID *int64, rec stats.PlayerStatisticsRecord) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Team is a team reference row.
type Team struct {
	ID     int64
	Name   string
	IsHome bool
}

// Player is a player reference row. Jersey and position are mutable and
// follow the most recent sheet.
type Player struct {
	ID         int64
	FullName   string
	Jersey     int
	PositionID *int64
}

// Match is the match row written for a unit.
type Match struct {
	CompetitionID  int64
	HomeTeamID     int64
	OpponentTeamID int64
	Number         int
	Date           time.Time
	HomeScore      string
	AwayScore      string
	SheetName      string
}
