package validation

import (
	"math"

	"github.com/JonMunkholm/statsetl/internal/stats"
)

// playerContext builds the location of a player row. The jersey is included
// only when it parses.
func playerContext(rec *stats.RawSheetRecord, row stats.RawRow) Context {
	ctx := Context{
		Sheet:  rec.SheetName,
		Row:    row.Line,
		Player: row.Cell(stats.FieldPlayerName),
	}
	if n, err := stats.ParseCount(row.Cell(stats.FieldJersey)); err == nil && n > 0 {
		ctx.Jersey = n
	}
	return ctx
}

// teamContext builds the location of a team row.
func teamContext(rec *stats.RawSheetRecord, row stats.RawRow) Context {
	return Context{
		Sheet: rec.SheetName,
		Row:   row.Line,
		Team:  row.Cell(stats.FieldTeam),
	}
}

// numbers parses every numeric field of specs present in row. Cells that
// fail to parse are left out; the DataType layer reports them.
func numbers(row stats.RawRow, specs []stats.FieldSpec) map[string]float64 {
	out := make(map[string]float64, len(specs))
	for _, spec := range specs {
		if spec.Kind == stats.KindText {
			continue
		}
		v, err := stats.ParseValue(spec.Kind, row.Cell(spec.Key))
		if err != nil {
			continue
		}
		out[spec.Key] = v
	}
	return out
}

// sum adds the values of keys, treating absent keys as zero.
func sum(values map[string]float64, keys ...string) float64 {
	var total float64
	for _, k := range keys {
		total += values[k]
	}
	return total
}

// minutes returns the parsed minutes of a player row, or -1 when unusable.
func minutes(row stats.RawRow) int {
	n, err := stats.ParseCount(row.Cell(stats.FieldMinutes))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// exceeds reports whether |a-b| is beyond tol, ignoring float noise.
func exceeds(a, b, tol float64) bool {
	return math.Abs(a-b) > tol+1e-9
}

// teamSlot is one cell of the period x side grid.
type teamSlot struct {
	period stats.Period
	home   bool
}

// teamGrid indexes team rows by period and side. Rows whose period or team
// cannot be resolved are left out; the Structure layer reports them.
func teamGrid(rec *stats.RawSheetRecord, cfg Config) map[teamSlot]stats.RawRow {
	grid := make(map[teamSlot]stats.RawRow, stats.TeamRowsPerMatch)
	for _, row := range rec.TeamRows {
		period, ok := stats.NormalizePeriod(row.Cell(stats.FieldPeriod))
		if !ok {
			continue
		}
		home, ok := stats.ResolveSide(row.Cell(stats.FieldTeam), cfg.HomeTeam, rec.Match.Opponent)
		if !ok {
			continue
		}
		slot := teamSlot{period: period, home: home}
		if _, dup := grid[slot]; !dup {
			grid[slot] = row
		}
	}
	return grid
}

func sideName(home bool) string {
	if home {
		return "home"
	}
	return "away"
}
