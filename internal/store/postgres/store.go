// Package postgres implements load.Store on a pgx connection pool.
//
// Lookups match natural keys case-insensitively through the lower(...)
// unique indexes created by the migrations. Statistics inserts are built
// from the field catalog so the column list always follows stats.PlayerFields
// and stats.TeamFields.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/statsetl/internal/load"
	"github.com/JonMunkholm/statsetl/internal/stats"
)

// Postgres error codes handled by the store.
const (
	uniqueViolation = "23505"
)

// Store opens unit transactions on a pool.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Begin starts a read-committed transaction.
func (s *Store) Begin(ctx context.Context) (load.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// Ping verifies the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Tx is a unit transaction.
type Tx struct {
	tx pgx.Tx
}

// findID runs a single-id query; a missing row is reported as ok=false.
func (t *Tx) findID(ctx context.Context, query string, args ...any) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// createID inserts with ON CONFLICT DO NOTHING and falls back to find when
// another writer created the row first.
func (t *Tx) createID(ctx context.Context, insert string, find func() (int64, bool, error), args ...any) (int64, bool, error) {
	id, ok, err := t.findID(ctx, insert, args...)
	if err != nil {
		return 0, false, err
	}
	if ok {
		return id, true, nil
	}
	id, ok, err = find()
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, errors.New("row vanished after conflicting insert")
	}
	return id, false, nil
}

func (t *Tx) FindSeason(ctx context.Context, year int) (int64, bool, error) {
	return t.findID(ctx, `SELECT id FROM season WHERE year = $1`, year)
}

func (t *Tx) CreateSeason(ctx context.Context, year int) (int64, bool, error) {
	return t.createID(ctx,
		`INSERT INTO season (year) VALUES ($1) ON CONFLICT DO NOTHING RETURNING id`,
		func() (int64, bool, error) { return t.FindSeason(ctx, year) },
		year)
}

func (t *Tx) FindCompetition(ctx context.Context, seasonID int64, name string) (int64, bool, error) {
	return t.findID(ctx,
		`SELECT id FROM competition WHERE season_id = $1 AND lower(name) = lower($2)`,
		seasonID, stats.NormalizeName(name))
}

func (t *Tx) CreateCompetition(ctx context.Context, seasonID int64, name string) (int64, bool, error) {
	name = stats.NormalizeName(name)
	return t.createID(ctx,
		`INSERT INTO competition (season_id, name) VALUES ($1, $2) ON CONFLICT DO NOTHING RETURNING id`,
		func() (int64, bool, error) { return t.FindCompetition(ctx, seasonID, name) },
		seasonID, name)
}

func (t *Tx) FindTeam(ctx context.Context, name string) (load.Team, bool, error) {
	var team load.Team
	err := t.tx.QueryRow(ctx,
		`SELECT id, name, is_home FROM team WHERE lower(name) = lower($1)`,
		stats.NormalizeName(name)).Scan(&team.ID, &team.Name, &team.IsHome)
	if errors.Is(err, pgx.ErrNoRows) {
		return load.Team{}, false, nil
	}
	if err != nil {
		return load.Team{}, false, err
	}
	return team, true, nil
}

func (t *Tx) CreateTeam(ctx context.Context, name string, isHome bool) (int64, bool, error) {
	name = stats.NormalizeName(name)
	return t.createID(ctx,
		`INSERT INTO team (name, is_home) VALUES ($1, $2) ON CONFLICT DO NOTHING RETURNING id`,
		func() (int64, bool, error) {
			team, ok, err := t.FindTeam(ctx, name)
			return team.ID, ok, err
		},
		name, isHome)
}

func (t *Tx) FindPosition(ctx context.Context, code string) (int64, bool, error) {
	return t.findID(ctx, `SELECT id FROM position WHERE code = upper($1)`, strings.TrimSpace(code))
}

func (t *Tx) FindPlayer(ctx context.Context, fullName string) (load.Player, bool, error) {
	var (
		p      load.Player
		jersey *int32
	)
	err := t.tx.QueryRow(ctx,
		`SELECT id, full_name, jersey_number, position_id FROM player WHERE lower(full_name) = lower($1)`,
		stats.NormalizeName(fullName)).Scan(&p.ID, &p.FullName, &jersey, &p.PositionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return load.Player{}, false, nil
	}
	if err != nil {
		return load.Player{}, false, err
	}
	if jersey != nil {
		p.Jersey = int(*jersey)
	}
	return p, true, nil
}

func (t *Tx) CreatePlayer(ctx context.Context, p load.Player) (int64, bool, error) {
	p.FullName = stats.NormalizeName(p.FullName)
	return t.createID(ctx,
		`INSERT INTO player (full_name, jersey_number, position_id) VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING RETURNING id`,
		func() (int64, bool, error) {
			existing, ok, err := t.FindPlayer(ctx, p.FullName)
			return existing.ID, ok, err
		},
		p.FullName, p.Jersey, p.PositionID)
}

func (t *Tx) UpdatePlayer(ctx context.Context, p load.Player) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE player SET jersey_number = $2, position_id = $3, updated_at = now() WHERE id = $1`,
		p.ID, p.Jersey, p.PositionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("player %d not found", p.ID)
	}
	return nil
}

func (t *Tx) MatchExists(ctx context.Context, competitionID int64, number int) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM match WHERE competition_id = $1 AND match_number = $2)`,
		competitionID, number).Scan(&exists)
	return exists, err
}

func (t *Tx) InsertMatch(ctx context.Context, m load.Match) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO match (competition_id, match_number, match_date, home_team_id, opponent_team_id,
		                    home_score, away_score, sheet_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		m.CompetitionID, m.Number, m.Date, m.HomeTeamID, m.OpponentTeamID,
		nullText(m.HomeScore), nullText(m.AwayScore), m.SheetName).Scan(&id)
	if isUniqueViolation(err) {
		return 0, load.ErrMatchExists
	}
	return id, err
}

func (t *Tx) InsertTeamPeriod(ctx context.Context, matchID, teamID int64, rec stats.TeamPeriodStatisticsRecord) error {
	args := []any{matchID, teamID, string(rec.Period), rec.IsHome}
	for _, spec := range stats.TeamFields {
		if spec.Key == stats.FieldTeamScoreline {
			args = append(args, nullText(rec.Scoreline))
			continue
		}
		args = append(args, columnValue(spec, rec.Values, nil))
	}
	_, err := t.tx.Exec(ctx, teamPeriodInsert, args...)
	return err
}

func (t *Tx) InsertPlayerStatistics(ctx context.Context, matchID, playerID int64, positionID *int64, rec stats.PlayerStatisticsRecord) error {
	args := []any{matchID, playerID, positionID, rec.Jersey, rec.Minutes}
	for _, spec := range stats.PlayerFields {
		args = append(args, columnValue(spec, rec.Values, rec.Text))
	}
	_, err := t.tx.Exec(ctx, playerStatsInsert, args...)
	return err
}

func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback is a no-op once the transaction has committed.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullText(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// columnValue converts a catalog field to its column value; absent fields are NULL.
func columnValue(spec stats.FieldSpec, values map[string]float64, text map[string]string) any {
	if spec.Kind == stats.KindText {
		return nullText(text[spec.Key])
	}
	v, ok := values[spec.Key]
	if !ok {
		return nil
	}
	if spec.Kind == stats.KindCount {
		return int64(v)
	}
	return v
}

var (
	teamPeriodInsert = buildInsert("match_team_statistics",
		[]string{"match_id", "team_id", "period", "is_home"}, stats.TeamFields)
	playerStatsInsert = buildInsert("player_match_statistics",
		[]string{"match_id", "player_id", "position_id", "jersey_number", "minutes_played"}, stats.PlayerFields)
)

// buildInsert renders an INSERT for the fixed columns followed by one column per field.
func buildInsert(table string, fixed []string, specs []stats.FieldSpec) string {
	cols := make([]string, 0, len(fixed)+len(specs))
	for _, c := range fixed {
		cols = append(cols, pgx.Identifier{c}.Sanitize())
	}
	for _, spec := range specs {
		cols = append(cols, pgx.Identifier{spec.Key}.Sanitize())
	}
	params := make([]string, len(cols))
	for i := range params {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{table}.Sanitize(), strings.Join(cols, ", "), strings.Join(params, ", "))
}
