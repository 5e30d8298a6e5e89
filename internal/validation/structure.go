package validation

import (
	"github.com/JonMunkholm/statsetl/internal/stats"
)

// requiredColumns must be present in every match sheet header.
var requiredColumns = []string{stats.FieldJersey, stats.FieldPlayerName, stats.FieldMinutes}

// CheckStructure validates sheet metadata and the overall shape of the sheet:
// the sheet name grammar, required columns, player rows and the six team rows.
func CheckStructure(rec *stats.RawSheetRecord, cfg Config) Result {
	var r Result
	sheet := Context{Sheet: rec.SheetName}

	if rec.MatchErr != nil {
		r.AddError(LayerStructure, CodeSheetName, sheet, "%v", rec.MatchErr)
	} else {
		if rec.Match.Number < 1 {
			r.AddError(LayerStructure, CodeSheetName, sheet, "match number must be at least 1")
		}
		if rec.Match.Competition == "" || rec.Match.Opponent == "" {
			r.AddError(LayerStructure, CodeSheetName, sheet, "competition and opponent are required")
		}
		if rec.Match.Date.IsZero() {
			r.AddError(LayerStructure, CodeSheetName, sheet, "match date is required")
		}
	}

	for _, col := range requiredColumns {
		if _, ok := rec.FieldMap[col]; !ok {
			r.AddError(LayerStructure, CodeMissingColumn, sheet.WithField(col), "required column %q not found in header", col)
		}
	}

	if len(rec.PlayerRows) == 0 {
		r.AddError(LayerStructure, CodeNoPlayers, sheet, "sheet has no player rows")
	}

	checkTeamRows(rec, cfg, &r)
	return r
}

func checkTeamRows(rec *stats.RawSheetRecord, cfg Config, r *Result) {
	sheet := Context{Sheet: rec.SheetName}

	if len(rec.TeamRows) != stats.TeamRowsPerMatch {
		r.AddError(LayerStructure, CodeTeamRowCount, sheet,
			"expected %d team statistics rows (3 periods x 2 teams), found %d",
			stats.TeamRowsPerMatch, len(rec.TeamRows))
	}
	if len(rec.TeamRows) == 0 {
		return
	}

	seen := make(map[teamSlot]int)
	for _, row := range rec.TeamRows {
		ctx := teamContext(rec, row)

		period, ok := stats.NormalizePeriod(row.Cell(stats.FieldPeriod))
		if !ok {
			r.AddError(LayerStructure, CodeTeamRowPeriod, ctx.WithField(stats.FieldPeriod),
				"unknown period %q, expected first half, second half or full time", row.Cell(stats.FieldPeriod))
			continue
		}

		home, ok := stats.ResolveSide(row.Cell(stats.FieldTeam), cfg.HomeTeam, rec.Match.Opponent)
		if !ok {
			r.AddError(LayerStructure, CodeTeamRowTeam, ctx.WithField(stats.FieldTeam),
				"team %q is neither %q nor the opponent %q", row.Cell(stats.FieldTeam), cfg.HomeTeam, rec.Match.Opponent)
			continue
		}

		slot := teamSlot{period: period, home: home}
		if prev, dup := seen[slot]; dup {
			r.AddError(LayerStructure, CodeTeamRowPairing, ctx,
				"%s %s row repeats row %d", sideName(home), period, prev)
			continue
		}
		seen[slot] = row.Line
	}

	for _, period := range stats.Periods {
		for _, home := range []bool{true, false} {
			if _, ok := seen[teamSlot{period: period, home: home}]; !ok && len(rec.TeamRows) == stats.TeamRowsPerMatch {
				r.AddError(LayerStructure, CodeTeamRowPairing, sheet,
					"missing %s team row for %s", sideName(home), period)
			}
		}
	}
}
