package validation

import (
	"github.com/JonMunkholm/statsetl/internal/stats"
)

// CheckPositions applies position-conditional heuristics to players who
// played at least HeuristicMinMinutes. It only ever warns. Players with a
// blank or unknown position are skipped.
func CheckPositions(rec *stats.RawSheetRecord, cfg Config) Result {
	var r Result
	for _, row := range rec.PlayerRows {
		mins := minutes(row)
		if mins < cfg.HeuristicMinMinutes {
			continue
		}
		code, ok := stats.NormalizePosition(row.Cell(stats.FieldPosition))
		if !ok || code == "" {
			continue
		}

		ctx := playerContext(rec, row)
		v := numbers(row, stats.PlayerFields)
		attacking := sum(v, stats.FieldShotsTotal, stats.FieldAttacksTotal)

		switch code {
		case stats.PositionGoalkeeper:
			if sum(v, stats.FieldKickoutsTaken, stats.FieldKickoutsTotal) == 0 {
				r.AddWarning(LayerPosition, CodeKeeperKickouts, ctx.WithField(stats.FieldKickoutsTaken),
					"goalkeeper played %d minutes with no kickouts recorded", mins)
			}
			if attacking > cfg.GoalkeeperAttackMax {
				r.AddWarning(LayerPosition, CodeKeeperAttacking, ctx.WithField(stats.FieldAttacksTotal),
					"goalkeeper has %g shots and attacks, expected at most %g", attacking, cfg.GoalkeeperAttackMax)
			}

		case stats.PositionDefender:
			if v[stats.FieldTacklesTotal] == 0 {
				r.AddWarning(LayerPosition, CodeDefenderTackles, ctx.WithField(stats.FieldTacklesTotal),
					"defender played %d minutes with no tackles recorded", mins)
			}

		case stats.PositionMidfielder:
			if v[stats.FieldTotalPossessions] == 0 {
				r.AddWarning(LayerPosition, CodeMidPossession, ctx.WithField(stats.FieldTotalPossessions),
					"midfielder played %d minutes with no possessions recorded", mins)
			}
			if v[stats.FieldKickoutsTotal] == 0 {
				r.AddWarning(LayerPosition, CodeMidKickouts, ctx.WithField(stats.FieldKickoutsTotal),
					"midfielder played %d minutes with no kickout contests recorded", mins)
			}

		case stats.PositionForward:
			if attacking == 0 {
				r.AddWarning(LayerPosition, CodeForwardAttacking, ctx.WithField(stats.FieldShotsTotal),
					"forward played %d minutes with no shots or attacks recorded", mins)
			}
			if mins >= cfg.ForwardScoringMinutes && scoringContribution(v) == 0 {
				r.AddWarning(LayerPosition, CodeForwardScoring, ctx.WithField(stats.FieldScore),
					"forward played %d minutes with no scores or assists", mins)
			}
		}
	}
	return r
}

func scoringContribution(v map[string]float64) float64 {
	return sum(v,
		stats.FieldShotsPoints, stats.FieldShotsTwoPoints, stats.FieldShotsGoals,
		stats.FieldFreesPoints, stats.FieldFreesTwoPoints, stats.FieldFreesGoals,
		stats.FieldAssistsTotal,
	)
}
