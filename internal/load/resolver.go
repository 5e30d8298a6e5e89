package load

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/statsetl/internal/stats"
)

// Resolver maps natural keys to surrogate ids inside one unit transaction.
// Lookups are cached for the life of the resolver so a sheet that names the
// same player or team twice touches the store once.
type Resolver struct {
	tx      Tx
	created int

	seasons      map[int]int64
	competitions map[string]int64
	teams        map[string]int64
	positions    map[string]int64
	players      map[string]int64
}

// NewResolver creates a resolver bound to tx.
func NewResolver(tx Tx) *Resolver {
	return &Resolver{
		tx:           tx,
		seasons:      make(map[int]int64),
		competitions: make(map[string]int64),
		teams:        make(map[string]int64),
		positions:    make(map[string]int64),
		players:      make(map[string]int64),
	}
}

// Created returns how many reference rows this resolver inserted.
func (r *Resolver) Created() int {
	return r.created
}

func naturalKey(s string) string {
	return strings.ToLower(stats.NormalizeName(s))
}

// Season resolves a season by year.
func (r *Resolver) Season(ctx context.Context, year int) (int64, error) {
	if id, ok := r.seasons[year]; ok {
		return id, nil
	}

	id, found, err := r.tx.FindSeason(ctx, year)
	if err != nil {
		return 0, fmt.Errorf("find season %d: %w", year, err)
	}
	if !found {
		var created bool
		id, created, err = r.tx.CreateSeason(ctx, year)
		if err != nil {
			return 0, fmt.Errorf("create season %d: %w", year, err)
		}
		r.count(created)
	}

	r.seasons[year] = id
	return id, nil
}

// Competition resolves a competition by season and name.
func (r *Resolver) Competition(ctx context.Context, seasonID int64, name string) (int64, error) {
	name = stats.NormalizeName(name)
	key := fmt.Sprintf("%d/%s", seasonID, naturalKey(name))
	if id, ok := r.competitions[key]; ok {
		return id, nil
	}

	id, found, err := r.tx.FindCompetition(ctx, seasonID, name)
	if err != nil {
		return 0, fmt.Errorf("find competition %q: %w", name, err)
	}
	if !found {
		var created bool
		id, created, err = r.tx.CreateCompetition(ctx, seasonID, name)
		if err != nil {
			return 0, fmt.Errorf("create competition %q: %w", name, err)
		}
		r.count(created)
	}

	r.competitions[key] = id
	return id, nil
}

// Team resolves a team by name. isHome is only applied when the team is
// created.
func (r *Resolver) Team(ctx context.Context, name string, isHome bool) (int64, error) {
	name = stats.NormalizeName(name)
	key := naturalKey(name)
	if id, ok := r.teams[key]; ok {
		return id, nil
	}

	team, found, err := r.tx.FindTeam(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("find team %q: %w", name, err)
	}
	id := team.ID
	if !found {
		var created bool
		id, created, err = r.tx.CreateTeam(ctx, name, isHome)
		if err != nil {
			return 0, fmt.Errorf("create team %q: %w", name, err)
		}
		r.count(created)
	}

	r.teams[key] = id
	return id, nil
}

// Position resolves a seeded position code. Positions are never created.
func (r *Resolver) Position(ctx context.Context, code string) (int64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if id, ok := r.positions[code]; ok {
		return id, nil
	}

	id, found, err := r.tx.FindPosition(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("find position %q: %w", code, err)
	}
	if !found {
		return 0, fmt.Errorf("%w %q", ErrUnknownPosition, code)
	}

	r.positions[code] = id
	return id, nil
}

// Player resolves a player by full name, creating the player when absent.
// An existing player whose jersey or position changed is updated in place.
// A nil positionID leaves a stored position untouched.
func (r *Resolver) Player(ctx context.Context, fullName string, jersey int, positionID *int64) (int64, error) {
	fullName = stats.NormalizeName(fullName)
	key := naturalKey(fullName)
	if id, ok := r.players[key]; ok {
		return id, nil
	}

	existing, found, err := r.tx.FindPlayer(ctx, fullName)
	if err != nil {
		return 0, fmt.Errorf("find player %q: %w", fullName, err)
	}

	if !found {
		id, created, err := r.tx.CreatePlayer(ctx, Player{FullName: fullName, Jersey: jersey, PositionID: positionID})
		if err != nil {
			return 0, fmt.Errorf("create player %q: %w", fullName, err)
		}
		r.count(created)
		r.players[key] = id
		return id, nil
	}

	updated := existing
	updated.Jersey = jersey
	if positionID != nil {
		updated.PositionID = positionID
	}
	if updated.Jersey != existing.Jersey || !samePosition(updated.PositionID, existing.PositionID) {
		if err := r.tx.UpdatePlayer(ctx, updated); err != nil {
			return 0, fmt.Errorf("update player %q: %w", fullName, err)
		}
	}

	r.players[key] = existing.ID
	return existing.ID, nil
}

func samePosition(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (r *Resolver) count(created bool) {
	if created {
		r.created++
	}
}
