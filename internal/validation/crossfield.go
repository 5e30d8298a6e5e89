package validation

import (
	"github.com/JonMunkholm/statsetl/internal/stats"
)

// CheckCrossField reconciles totals with their breakdowns and derived
// percentages with their raw counts. Every mismatch is a warning.
func CheckCrossField(rec *stats.RawSheetRecord, cfg Config) Result {
	var r Result
	for _, row := range rec.PlayerRows {
		checkPlayerArithmetic(&r, playerContext(rec, row), row, cfg)
	}
	checkTeamArithmetic(&r, rec, cfg)
	return r
}

func checkPlayerArithmetic(r *Result, ctx Context, row stats.RawRow, cfg Config) {
	values := numbers(row, stats.PlayerFields)

	for _, rule := range stats.PlayerSumRules {
		total, ok := values[rule.Total]
		if !ok {
			continue
		}
		parts := sum(values, rule.Parts...)
		if exceeds(total, parts, cfg.CountTolerance) {
			r.AddWarning(LayerCrossField, CodeTotalMismatch, ctx.WithField(rule.Total),
				"%s is %g but its breakdown sums to %g", rule.Total, total, parts)
		}
	}

	for _, rule := range stats.PlayerRatioRules {
		pct, ok := values[rule.Percentage]
		if !ok {
			continue
		}
		denom := values[rule.Denominator]
		if denom <= 0 {
			continue
		}
		want := sum(values, rule.Numerator...) / denom
		if exceeds(pct, want, cfg.RatioTolerance) {
			r.AddWarning(LayerCrossField, CodeRatioMismatch, ctx.WithField(rule.Percentage),
				"%s is %.3f but the counts give %.3f", rule.Percentage, pct, want)
		}
	}
}

func checkTeamArithmetic(r *Result, rec *stats.RawSheetRecord, cfg Config) {
	grid := teamGrid(rec, cfg)
	values := make(map[teamSlot]map[string]float64, len(grid))
	for slot, row := range grid {
		values[slot] = numbers(row, stats.TeamFields)
	}

	// Scoreline agrees with the goal and point columns.
	for _, row := range rec.TeamRows {
		score, err := stats.ParseScore(row.Cell(stats.FieldTeamScoreline))
		if err != nil {
			continue
		}
		nums := numbers(row, stats.TeamFields)
		ctx := teamContext(rec, row).WithField(stats.FieldTeamScoreline)
		if g, ok := nums[stats.FieldTeamGoals]; ok && int(g) != score.Goals {
			r.AddWarning(LayerCrossField, CodeScorelineColumns, ctx,
				"scoreline %s has %d goals but the goals column is %g", score, score.Goals, g)
		}
		if p, ok := nums[stats.FieldTeamPoints]; ok && int(p) != score.Points {
			r.AddWarning(LayerCrossField, CodeScorelineColumns, ctx,
				"scoreline %s has %d points but the points column is %g", score, score.Points, p)
		}
	}

	// Full time equals first half plus second half.
	for _, home := range []bool{true, false} {
		first, ok1 := values[teamSlot{stats.PeriodFirstHalf, home}]
		second, ok2 := values[teamSlot{stats.PeriodSecondHalf, home}]
		full, ok3 := values[teamSlot{stats.PeriodFullTime, home}]
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		ctx := teamContext(rec, grid[teamSlot{stats.PeriodFullTime, home}])
		for _, key := range stats.TeamPeriodSumFields {
			ft, ok := full[key]
			if !ok {
				continue
			}
			halves := first[key] + second[key]
			if exceeds(ft, halves, cfg.CountTolerance) {
				r.AddWarning(LayerCrossField, CodePeriodSum, ctx.WithField(key),
					"%s full time %s is %g but the halves sum to %g", sideName(home), key, ft, halves)
			}
		}
	}

	// Possession across both teams sums to one per period.
	for _, period := range stats.Periods {
		home, ok1 := values[teamSlot{period, true}][stats.FieldTeamPossession]
		away, ok2 := values[teamSlot{period, false}][stats.FieldTeamPossession]
		if !ok1 || !ok2 {
			continue
		}
		if exceeds(home+away, 1, cfg.PossessionTolerance) {
			r.AddWarning(LayerCrossField, CodePossessionSum,
				Context{Sheet: rec.SheetName, Field: stats.FieldTeamPossession},
				"%s possession sums to %.3f across both teams, expected 1.0", period, home+away)
		}
	}
}
