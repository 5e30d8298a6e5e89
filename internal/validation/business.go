package validation

import (
	"github.com/JonMunkholm/statsetl/internal/stats"
)

// CheckBusinessRules applies domain rules: booking limits per player,
// turnovers against possessions, score notation, and squad-level
// plausibility (size, goalkeeper, minutes, bookings) checked once per sheet.
func CheckBusinessRules(rec *stats.RawSheetRecord, cfg Config) Result {
	var r Result

	var (
		squadMinutes  int
		hasGoalkeeper bool

		squadRed, squadBlack   float64
		playerRed, playerBlack bool
	)

	for _, row := range rec.PlayerRows {
		ctx := playerContext(rec, row)
		v := numbers(row, stats.PlayerFields)

		red, black := v[stats.FieldRedCards], v[stats.FieldBlackCards]
		squadRed += red
		squadBlack += black
		if red > float64(cfg.MaxRedCards) {
			playerRed = true
			r.AddError(LayerBusinessRule, CodeRedCards, ctx.WithField(stats.FieldRedCards),
				"%g red cards, maximum %d per match", red, cfg.MaxRedCards)
		}
		if black > float64(cfg.MaxBlackCards) {
			playerBlack = true
			r.AddError(LayerBusinessRule, CodeBlackCards, ctx.WithField(stats.FieldBlackCards),
				"%g black cards, maximum %d per match", black, cfg.MaxBlackCards)
		}
		if yellow := v[stats.FieldYellowCards]; yellow > float64(cfg.MaxYellowCards) {
			r.AddWarning(LayerBusinessRule, CodeYellowCards, ctx.WithField(stats.FieldYellowCards),
				"%g yellow cards, more than %d is unusual", yellow, cfg.MaxYellowCards)
		}

		lost, okLost := v[stats.FieldTurnoversLostTotal]
		poss, okPoss := v[stats.FieldTotalPossessions]
		if okLost && okPoss && lost > poss {
			r.AddWarning(LayerBusinessRule, CodeTurnovers, ctx.WithField(stats.FieldTurnoversLostTotal),
				"%g turnovers lost exceeds %g total possessions", lost, poss)
		}

		if score := row.Cell(stats.FieldScore); score != "" && !stats.ValidScoreNotation(score) {
			r.AddWarning(LayerBusinessRule, CodeScoreNotation, ctx.WithField(stats.FieldScore),
				"score %q does not match G-PP(Ff) notation", score)
		}

		if m := minutes(row); m > 0 {
			squadMinutes += m
		}
		if code, _ := stats.NormalizePosition(row.Cell(stats.FieldPosition)); code == stats.PositionGoalkeeper ||
			v[stats.FieldKickoutsTaken] > 0 {
			hasGoalkeeper = true
		}
	}

	sheet := Context{Sheet: rec.SheetName}

	if n := len(rec.PlayerRows); n < cfg.MinPlayers || n > cfg.MaxPlayers {
		r.AddWarning(LayerBusinessRule, CodeSquadSize, sheet,
			"%d players listed, expected %d-%d", n, cfg.MinPlayers, cfg.MaxPlayers)
	}
	if !hasGoalkeeper && len(rec.PlayerRows) > 0 {
		r.AddWarning(LayerBusinessRule, CodeNoGoalkeeper, sheet,
			"no goalkeeper found (no GK position and no kickouts taken)")
	}
	if squadMinutes < cfg.MinSquadMinutes || squadMinutes > cfg.MaxSquadMinutes {
		r.AddWarning(LayerBusinessRule, CodeSquadMinutes, sheet.WithField(stats.FieldMinutes),
			"players total %d minutes, expected %d-%d", squadMinutes, cfg.MinSquadMinutes, cfg.MaxSquadMinutes)
	}

	// A player already over the limit carries the error; the squad total
	// only flags bookings spread across several players.
	if !playerRed && squadRed > float64(cfg.MaxRedCards) {
		r.AddWarning(LayerBusinessRule, CodeSquadRedCards, sheet.WithField(stats.FieldRedCards),
			"%g red cards across the squad, more than %d is unusual", squadRed, cfg.MaxRedCards)
	}
	if !playerBlack && squadBlack > float64(cfg.MaxBlackCards) {
		r.AddWarning(LayerBusinessRule, CodeSquadBlackCards, sheet.WithField(stats.FieldBlackCards),
			"%g black cards across the squad, more than %d is unusual", squadBlack, cfg.MaxBlackCards)
	}

	for _, row := range rec.TeamRows {
		if s := row.Cell(stats.FieldTeamScoreline); s != "" && !stats.ValidScoreNotation(s) {
			r.AddWarning(LayerBusinessRule, CodeTeamScoreline, teamContext(rec, row).WithField(stats.FieldTeamScoreline),
				"scoreline %q does not match G-PP(Ff) notation", s)
		}
	}

	return r
}
