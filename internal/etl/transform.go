package etl

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/statsetl/internal/stats"
)

// BuildUnit converts a validated sheet into a match unit. It assumes the
// sheet passed validation and fails on the first cell it cannot convert.
func BuildUnit(rec *stats.RawSheetRecord, homeTeam string) (stats.MatchUnit, error) {
	if rec.MatchErr != nil {
		return stats.MatchUnit{}, rec.MatchErr
	}
	home := stats.NormalizeName(homeTeam)
	m := rec.Match

	unit := stats.MatchUnit{
		Match: stats.MatchRecord{
			Competition: m.Competition,
			Season:      m.Season(),
			Number:      m.Number,
			Opponent:    m.Opponent,
			Date:        m.Date,
			HomeTeam:    home,
			SheetName:   rec.SheetName,
		},
		Players: make([]stats.PlayerStatisticsRecord, 0, len(rec.PlayerRows)),
		Periods: make([]stats.TeamPeriodStatisticsRecord, 0, len(rec.TeamRows)),
	}

	for _, row := range rec.PlayerRows {
		p, err := buildPlayer(row)
		if err != nil {
			return stats.MatchUnit{}, fmt.Errorf("row %d: %w", row.Line, err)
		}
		unit.Players = append(unit.Players, p)
	}

	for _, row := range rec.TeamRows {
		t, err := buildTeamPeriod(row, home, m.Opponent)
		if err != nil {
			return stats.MatchUnit{}, fmt.Errorf("row %d: %w", row.Line, err)
		}
		unit.Periods = append(unit.Periods, t)

		if t.Period == stats.PeriodFullTime {
			if t.IsHome {
				unit.Match.HomeScore = t.Scoreline
			} else {
				unit.Match.AwayScore = t.Scoreline
			}
		}
	}
	return unit, nil
}

func buildPlayer(row stats.RawRow) (stats.PlayerStatisticsRecord, error) {
	jersey, err := stats.ParseCount(row.Cell(stats.FieldJersey))
	if err != nil {
		return stats.PlayerStatisticsRecord{}, fmt.Errorf("%s: %w", stats.FieldJersey, err)
	}
	minutes, err := stats.ParseCount(row.Cell(stats.FieldMinutes))
	if err != nil {
		return stats.PlayerStatisticsRecord{}, fmt.Errorf("%s: %w", stats.FieldMinutes, err)
	}
	position, ok := stats.NormalizePosition(row.Cell(stats.FieldPosition))
	if !ok {
		return stats.PlayerStatisticsRecord{}, fmt.Errorf("%s: unknown code %q", stats.FieldPosition, row.Cell(stats.FieldPosition))
	}

	p := stats.PlayerStatisticsRecord{
		Jersey:   jersey,
		FullName: stats.NormalizeName(row.Cell(stats.FieldPlayerName)),
		Position: position,
		Minutes:  minutes,
		Line:     row.Line,
		Values:   make(map[string]float64),
		Text:     make(map[string]string),
	}
	if err := fillValues(row, stats.PlayerFields, p.Values, p.Text); err != nil {
		return stats.PlayerStatisticsRecord{}, err
	}
	return p, nil
}

func buildTeamPeriod(row stats.RawRow, home, opponent string) (stats.TeamPeriodStatisticsRecord, error) {
	period, ok := stats.NormalizePeriod(row.Cell(stats.FieldPeriod))
	if !ok {
		return stats.TeamPeriodStatisticsRecord{}, fmt.Errorf("%s: unknown period %q", stats.FieldPeriod, row.Cell(stats.FieldPeriod))
	}
	isHome, ok := stats.ResolveSide(row.Cell(stats.FieldTeam), home, opponent)
	if !ok {
		return stats.TeamPeriodStatisticsRecord{}, fmt.Errorf("%s: unknown team %q", stats.FieldTeam, row.Cell(stats.FieldTeam))
	}

	t := stats.TeamPeriodStatisticsRecord{
		Period: period,
		Team:   opponent,
		IsHome: isHome,
		Values: make(map[string]float64),
	}
	if isHome {
		t.Team = home
	}

	text := make(map[string]string)
	if err := fillValues(row, stats.TeamFields, t.Values, text); err != nil {
		return stats.TeamPeriodStatisticsRecord{}, err
	}
	t.Scoreline = text[stats.FieldTeamScoreline]
	if t.Scoreline == "" {
		t.Scoreline = scorelineFromColumns(t.Values)
	}
	return t, nil
}

// fillValues parses every non-blank catalog cell of row into values or text.
func fillValues(row stats.RawRow, specs []stats.FieldSpec, values map[string]float64, text map[string]string) error {
	for _, spec := range specs {
		raw := row.Cell(spec.Key)
		if raw == "" {
			continue
		}
		if spec.Kind == stats.KindText {
			text[spec.Key] = raw
			continue
		}
		v, err := stats.ParseValue(spec.Kind, raw)
		if errors.Is(err, stats.ErrBlank) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", spec.Key, err)
		}
		values[spec.Key] = v
	}
	return nil
}

// scorelineFromColumns renders the goals and points columns in score
// notation, for sheets that leave the scoreline cell blank.
func scorelineFromColumns(values map[string]float64) string {
	goals, okG := values[stats.FieldTeamGoals]
	points, okP := values[stats.FieldTeamPoints]
	if !okG && !okP {
		return ""
	}
	return stats.Score{Goals: int(goals), Points: int(points)}.String()
}
